package mid_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/basicnode/ledger/business/sys/validate"
	"github.com/basicnode/ledger/business/web/errs"
	"github.com/basicnode/ledger/business/web/mid"
	"github.com/basicnode/ledger/foundation/blockchain/database"
	"github.com/basicnode/ledger/foundation/web"
	"go.uber.org/zap"
)

func Test_Errors(t *testing.T) {
	type table struct {
		name    string
		handler web.Handler
		status  int
		message string
		fields  bool
	}

	tt := []table{
		{
			name: "trusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.NewTrusted(errors.New("bad block"), http.StatusBadRequest)
			},
			status:  http.StatusBadRequest,
			message: "bad block",
		},
		{
			name: "validation",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.NewTrusted(validate.Check(database.Tx{}), http.StatusBadRequest)
			},
			status:  http.StatusBadRequest,
			message: "data validation error",
			fields:  true,
		},
		{
			name: "untrusted",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errors.New("database password is hunter2")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("boom")
			},
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
	}

	log := zap.NewNop().Sugar()

	for _, tst := range tt {
		f := func(t *testing.T) {
			app := web.NewApp(make(chan os.Signal, 1), mid.Logger(log), mid.Errors(log), mid.Metrics(), mid.Panics())
			app.Handle(http.MethodGet, "v1", "/test", tst.handler)

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

			if w.Code != tst.status {
				t.Fatalf("Test %s:\tShould receive a status code of %d, got %d.", tst.name, tst.status, w.Code)
			}

			var resp errs.Response
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Test %s:\tShould be able to decode the response: %v", tst.name, err)
			}

			if resp.Error != tst.message {
				t.Logf("Test %s:\tgot: %s", tst.name, resp.Error)
				t.Logf("Test %s:\texp: %s", tst.name, tst.message)
				t.Fatalf("Test %s:\tShould get back the right message.", tst.name)
			}

			if tst.fields && len(resp.Fields) == 0 {
				t.Fatalf("Test %s:\tShould get back the field errors.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Cors(t *testing.T) {
	app := web.NewApp(make(chan os.Signal, 1), mid.Cors("*"))
	app.Handle(http.MethodGet, "", "/test", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Should set the allowed origin, got %q.", got)
	}
}
