package bapp_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/advdv/bslim"
	"github.com/advdv/bslim/bapp"
	"github.com/advdv/bslim/bapp/bapptest"
	"github.com/carlmjohnson/requests"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type TestEnv struct {
	bapp.BaseEnvironment
	Greeting string `env:"GREETING" envDefault:"hello"`
}

var KindStorage = bslim.NewKind("storage", bslim.KindError)

type storageError struct{ table string }

func (e storageError) Error() string     { return "table " + e.table + " is unavailable" }
func (e storageError) Kind() *bslim.Kind { return KindStorage }

type Handlers struct {
	rt *bapp.Runtime[TestEnv]
}

func NewHandlers(rt *bapp.Runtime[TestEnv]) *Handlers {
	return &Handlers{rt: rt}
}

func (h *Handlers) GetItem(ctx context.Context, w bslim.ResponseWriter, r *http.Request) error {
	bapp.Log(ctx).Info("get item", zap.String("id", r.PathValue("id")))

	self, err := h.rt.Reverse("get-item", r.PathValue("id"))
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, `{"greeting":%q,"self":%q}`, h.rt.Env().Greeting, self)
	return err
}

func (h *Handlers) ListOrders(context.Context, bslim.ResponseWriter, *http.Request) error {
	return errors.Wrap(storageError{table: "orders"}, "list orders")
}

func (h *Handlers) Panic(context.Context, bslim.ResponseWriter, *http.Request) error {
	panic("kaboom")
}

func storageErrorHandler(w bslim.ResponseWriter, _ *http.Request, err error, _ bslim.Flags) error {
	w.WriteHeader(http.StatusServiceUnavailable)
	_, werr := fmt.Fprintf(w, "storage: %v", err)
	return werr
}

func routing(m *bapp.Mux, h *Handlers) {
	m.HandleFunc("GET /items/{id}", h.GetItem, "get-item")
	m.HandleFunc("GET /orders", h.ListOrders)
	m.HandleFunc("GET /panic", h.Panic)
}

func TestApp(t *testing.T) {
	bapptest.SetBaseEnv(t, 18091).ReadinessCheckPath("/ready")
	t.Setenv("GREETING", "hi")

	app := bapptest.New[TestEnv](t, routing,
		bapp.WithFx(fx.Provide(NewHandlers)),
		bapp.WithNamedErrorHandler("storage", bslim.ErrorHandlerFunc(storageErrorHandler)),
		bapp.WithErrorHandler(KindStorage, "storage", true),
	)

	app.RequireStart()
	t.Cleanup(app.RequireStop)

	ctx, baseURL := context.Background(), "http://localhost:18091"

	t.Run("routed request", func(t *testing.T) {
		var body string
		require.NoError(t, requests.URL(baseURL+"/items/42").ToString(&body).Fetch(ctx))
		assert.Equal(t, "hi", gjson.Get(body, "greeting").String())
		assert.Equal(t, "/items/42", gjson.Get(body, "self").String())
	})

	t.Run("kind handler by name", func(t *testing.T) {
		var body string
		require.NoError(t, requests.URL(baseURL+"/orders").
			CheckStatus(http.StatusServiceUnavailable).
			ToString(&body).
			Fetch(ctx))
		assert.Equal(t, "storage: list orders: table orders is unavailable", body)
	})

	t.Run("unrouted request as json", func(t *testing.T) {
		var body string
		require.NoError(t, requests.URL(baseURL+"/nope").
			Accept("application/json").
			CheckStatus(http.StatusNotFound).
			CheckContentType("application/json").
			ToString(&body).
			Fetch(ctx))
		assert.Equal(t, "404 Not Found", gjson.Get(body, "message").String())
		assert.False(t, gjson.Get(body, "exception").Exists())
	})

	t.Run("method not allowed", func(t *testing.T) {
		var allow string
		require.NoError(t, requests.URL(baseURL+"/orders").
			Method(http.MethodDelete).
			CheckStatus(http.StatusMethodNotAllowed).
			Handle(func(resp *http.Response) error {
				allow = resp.Header.Get("Allow")
				return nil
			}).
			Fetch(ctx))
		assert.Contains(t, allow, http.MethodGet)
	})

	t.Run("panic", func(t *testing.T) {
		var body string
		require.NoError(t, requests.URL(baseURL+"/panic").
			Accept("application/json").
			CheckStatus(http.StatusInternalServerError).
			ToString(&body).
			Fetch(ctx))
		assert.Equal(t, "Application Error", gjson.Get(body, "message").String())
	})

	t.Run("health", func(t *testing.T) {
		require.NoError(t, requests.URL(baseURL+"/ready").Fetch(ctx))
	})
}

func TestAppDisplayErrorDetails(t *testing.T) {
	bapptest.SetBaseEnv(t, 18092).DisplayErrorDetails(true)

	app := bapptest.New[TestEnv](t, routing, bapp.WithFx(fx.Provide(NewHandlers)))
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	var body string
	require.NoError(t, requests.URL("http://localhost:18092/orders").
		Accept("application/json").
		CheckStatus(http.StatusInternalServerError).
		ToString(&body).
		Fetch(context.Background()))

	assert.Equal(t, "Application Error", gjson.Get(body, "message").String())
	assert.Equal(t, "storage", gjson.Get(body, `exception.#(kind=="storage").kind`).String())
}

func TestAppDefaultErrorHandler(t *testing.T) {
	bapptest.SetBaseEnv(t, 18093)

	app := bapptest.New[TestEnv](t, routing,
		bapp.WithFx(fx.Provide(NewHandlers)),
		bapp.WithDefaultErrorHandler(func(w bslim.ResponseWriter, _ *http.Request, err error, _ bslim.Flags) error {
			w.WriteHeader(int(bslim.CodeOf(err)))
			_, werr := fmt.Fprint(w, "custom")
			return werr
		}),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	var body string
	require.NoError(t, requests.URL("http://localhost:18093/nope").
		CheckStatus(http.StatusNotFound).
		ToString(&body).
		Fetch(context.Background()))
	assert.Equal(t, "custom", body)
}

func TestAppUnknownErrorHandlerName(t *testing.T) {
	bapptest.SetBaseEnv(t, 18094)

	app := fx.New(bapp.FxOptions[TestEnv](routing,
		bapp.WithFx(fx.Provide(NewHandlers)),
		bapp.WithErrorHandler(KindStorage, "missing", true),
	)...)

	require.ErrorContains(t, app.Err(), `invalid error handler for kind "storage"`)
	require.ErrorContains(t, app.Err(), `no error handler named "missing"`)
}

func newServiceErrorHandler(env TestEnv) bapp.NamedErrorHandler {
	return bapp.NamedErrorHandler{Name: "storage", Handler: bslim.ErrorHandlerFunc(
		func(w bslim.ResponseWriter, _ *http.Request, _ error, _ bslim.Flags) error {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, err := fmt.Fprint(w, env.ServiceName)
			return err
		})}
}

func TestAppNamedErrorHandlerFromConstructor(t *testing.T) {
	bapptest.SetBaseEnv(t, 18095)

	app := bapptest.New[TestEnv](t, routing,
		bapp.WithFx(
			fx.Provide(NewHandlers),
			fx.Provide(bapp.AsNamedErrorHandler(newServiceErrorHandler)),
		),
		bapp.WithErrorHandler(KindStorage, "storage", false),
	)
	app.RequireStart()
	t.Cleanup(app.RequireStop)

	var body string
	require.NoError(t, requests.URL("http://localhost:18095/orders").
		CheckStatus(http.StatusServiceUnavailable).
		ToString(&body).
		Fetch(context.Background()))
	assert.Equal(t, "test", body)
}
