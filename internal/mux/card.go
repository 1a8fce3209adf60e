package mux

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

const maxHolderLength = 60

type postCardPayload struct {
	Holder  string `json:"holder"`
	Balance int    `json:"balance"`
}

func (m *Mux) postCard() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pp postCardPayload
		if !decodeRequest(w, r, &pp) {
			return
		}

		holder := strings.TrimSpace(pp.Holder)
		if holder == "" || len(holder) > maxHolderLength {
			writeJSONError(w, http.StatusBadRequest, errors.New("holder must be 1-60 characters"))
			return
		}

		if pp.Balance < 0 {
			writeJSONError(w, http.StatusBadRequest, errors.New("balance cannot be negative"))
			return
		}

		card, err := m.floor.CreateCard(r.Context(), holder, pp.Balance)
		if err != nil {
			writeFloorError(w, err)
			return
		}

		logrus.WithFields(logrus.Fields{
			"operator": operatorFromContext(r.Context()),
			"card":     card.String(),
			"balance":  card.Balance,
		}).Info("card issued by operator")

		writeJSON(w, http.StatusCreated, card)
	}
}

func (m *Mux) getCardUUID() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := m.floor.Card(r.Context(), strings.ToLower(mux.Vars(r)["uuid"]))
		if err != nil {
			writeFloorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}
