package mux

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"gamingterminal-server/pkg/floor"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

func (m *Mux) getMachine() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		offset, limit, err := parsePaginationOptions(r)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		terminals := m.floor.Terminals()
		if offset >= int64(len(terminals)) {
			writeJSON(w, http.StatusOK, []*floor.Terminal{})
			return
		}

		terminals = terminals[offset:]
		if len(terminals) > limit {
			terminals = terminals[:limit]
		}

		writeJSON(w, http.StatusOK, terminals)
	}
}

type postMachinePayload struct {
	Name string `json:"name"`
}

func (m *Mux) postMachine() http.HandlerFunc {
	var wordChar = regexp.MustCompile(`\w`)
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postMachinePayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		// an empty name gets a random one
		if pp.Name != "" && (!wordChar.MatchString(pp.Name) || len(pp.Name) < 3 || len(pp.Name) > 40) {
			writeJSONError(w, http.StatusBadRequest, errors.New("name must be 3-40 characters"))
			return
		}

		t := m.floor.AddTerminal(pp.Name)
		logrus.WithFields(logrus.Fields{
			"operator": operatorFromContext(r.Context()),
			"machine":  t.ID(),
		}).Info("terminal installed by operator")

		writeJSON(w, http.StatusCreated, t)
	}
}

func (m *Mux) getMachineID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, terminalFromContext(r.Context()))
	}
}

func (m *Mux) getMachineIDEvents() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, terminalFromContext(r.Context()).Events())
	}
}

type postMachineIDCardPayload struct {
	UUID string `json:"uuid"`
}

func (m *Mux) postMachineIDCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postMachineIDCardPayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		if pp.UUID == "" {
			writeJSONError(w, http.StatusBadRequest, errors.New("uuid is required"))
			return
		}

		card, err := terminalFromContext(r.Context()).InsertCard(r.Context(), strings.ToLower(pp.UUID))
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, card)
	}
}

func (m *Mux) deleteMachineIDCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := terminalFromContext(r.Context()).EjectCard(strings.ToLower(mux.Vars(r)["uuid"])); err != nil {
			writeFloorError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// a missing maxBets uses the floor's default, zero is unlimited
type postMachineIDRoundPayload struct {
	MaxBets *int `json:"maxBets"`
}

func (m *Mux) postMachineIDRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// the body is optional
		var pp postMachineIDRoundPayload
		if r.ContentLength != 0 && !decodeRequest(w, r, &pp) {
			return
		}

		round, err := terminalFromContext(r.Context()).OpenRound(pp.MaxBets)
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, round)
	}
}

func (m *Mux) deleteMachineIDRound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		round, err := terminalFromContext(r.Context()).CloseRound()
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, round)
	}
}

type postMachineIDBetPayload struct {
	Card   string `json:"card"`
	Amount *int   `json:"amount"`
}

func (m *Mux) postMachineIDBet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postMachineIDBetPayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		// a missing amount is the machine's call
		bet, err := terminalFromContext(r.Context()).PlaceBet(r.Context(), strings.ToLower(pp.Card), pp.Amount)
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, bet)
	}
}

type postMachineIDPrizePayload struct {
	Bet string `json:"bet"`
}

func (m *Mux) postMachineIDPrize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postMachineIDPrizePayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		if pp.Bet == "" {
			writeJSONError(w, http.StatusBadRequest, errors.New("bet is required"))
			return
		}

		t := terminalFromContext(r.Context())
		bet, err := t.GivePrize(r.Context(), strings.ToLower(pp.Bet))
		if err != nil {
			writeFloorError(w, err)
			return
		}

		logrus.WithFields(logrus.Fields{
			"operator": operatorFromContext(r.Context()),
			"machine":  t.ID(),
			"bet":      bet.ID,
		}).Info("prize given by operator")

		writeJSON(w, http.StatusOK, bet)
	}
}
