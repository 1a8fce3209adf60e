package mux

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"gamingterminal-server/internal/jwt"
	"gamingterminal-server/pkg/floor"

	gmux "github.com/gorilla/mux"
)

type ctxKey int

const (
	ctxOperatorKey ctxKey = iota
	ctxTerminalKey
)

const uuidPattern = "{%s:(?i)[a-f0-9]{8}(?:-[a-f0-9]{4}){3}-[a-f0-9]{12}}"

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version string
	floor   *floor.Floor

	// store for testing purposes
	authRouter *gmux.Router
}

// NewMux returns a new HTTP mux
func NewMux(version string, f *floor.Floor) *Mux {
	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		floor:   f,
	}

	this.authRouter = this.Router.NewRoute().Subrouter()
	this.authRouter.Use(this.authMiddleware)

	// unauthorized endpoints
	{
		r := this.Router
		r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	}

	// requires bearer authorization
	{
		r := this.authRouter

		r.Methods(http.MethodPost).Path("/card").Handler(this.postCard())
		r.Methods(http.MethodGet).Path("/card/" + uuidVar("uuid")).Handler(this.getCardUUID())

		r.Methods(http.MethodGet).Path("/bet/" + uuidVar("id")).Handler(this.getBetID())
		r.Methods(http.MethodPost).Path("/bet/" + uuidVar("id") + "/resolve").Handler(this.postBetIDResolve())

		r.Methods(http.MethodGet).Path("/machine").Handler(this.getMachine())
		r.Methods(http.MethodPost).Path("/machine").Handler(this.postMachine())

		mr := r.PathPrefix("/machine/" + uuidVar("id")).Subrouter()
		mr.Use(this.terminalMiddleware)

		mr.Methods(http.MethodGet).Path("").Handler(this.getMachineID())
		mr.Methods(http.MethodGet).Path("/ws").Handler(this.getMachineIDWS())
		mr.Methods(http.MethodGet).Path("/events").Handler(this.getMachineIDEvents())
		mr.Methods(http.MethodPost).Path("/card").Handler(this.postMachineIDCard())
		mr.Methods(http.MethodDelete).Path("/card/" + uuidVar("uuid")).Handler(this.deleteMachineIDCard())
		mr.Methods(http.MethodPost).Path("/round").Handler(this.postMachineIDRound())
		mr.Methods(http.MethodDelete).Path("/round").Handler(this.deleteMachineIDRound())
		mr.Methods(http.MethodPost).Path("/bet").Handler(this.postMachineIDBet())
		mr.Methods(http.MethodPost).Path("/prize").Handler(this.postMachineIDPrize())
	}

	return this
}

func uuidVar(name string) string {
	return fmt.Sprintf(uuidPattern, name)
}

func (m *Mux) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.FormValue("access_token")
		if token == "" {
			authHeader := strings.Split(r.Header.Get("Authorization"), " ")
			if len(authHeader) != 2 || strings.ToLower(authHeader[0]) != "bearer" {
				writeJSONError(w, http.StatusUnauthorized, nil)
				return
			}

			token = authHeader[1]
		}

		operator, err := jwt.ValidOperator(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, nil)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxOperatorKey, operator)
		w.Header().Set("GamingTerminal-Operator", operator)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

func (m *Mux) terminalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t, err := m.floor.Terminal(strings.ToLower(gmux.Vars(r)["id"]))
		if err != nil {
			writeFloorError(w, err)
			return
		}

		newCtx := context.WithValue(r.Context(), ctxTerminalKey, t)
		next.ServeHTTP(w, r.WithContext(newCtx))
	})
}

func operatorFromContext(ctx context.Context) string {
	return ctx.Value(ctxOperatorKey).(string)
}

func terminalFromContext(ctx context.Context) *floor.Terminal {
	return ctx.Value(ctxTerminalKey).(*floor.Terminal)
}
