package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"gamingterminal-server/pkg/db"
	"gamingterminal-server/pkg/token"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const cardColumns = `
cards.uuid,
cards.number,
cards.holder,
cards.balance,
cards.created,
cards.updated`

const betColumns = `
bets.id,
bets.card_uuid,
bets.machine_id,
bets.round_id,
bets.amount,
bets.resolved,
bets.prize,
bets.paid,
bets.created,
bets.resolved_at,
bets.settled`

// Postgres stores cards and bets in postgres
type Postgres struct {
	db *sql.DB
}

// NewPostgres returns a ledger using the shared database instance
func NewPostgres() *Postgres {
	return &Postgres{db: db.Instance()}
}

func getCardByRow(row db.Scanner) (*Card, error) {
	var c Card
	if err := row.Scan(&c.UUID, &c.Number, &c.Holder, &c.Balance, &c.Created, &c.Updated); err != nil {
		return nil, err
	}

	return &c, nil
}

func getBetByRow(row db.Scanner) (*Bet, error) {
	var b Bet
	var resolvedAt, settled sql.NullTime
	if err := row.Scan(&b.ID, &b.CardUUID, &b.MachineID, &b.RoundID, &b.Amount, &b.Resolved, &b.Prize, &b.Paid,
		&b.Created, &resolvedAt, &settled); err != nil {
		return nil, err
	}

	b.ResolvedAt = resolvedAt.Time
	b.Settled = settled.Time
	return &b, nil
}

// CreateCard issues a new card
func (p *Postgres) CreateCard(ctx context.Context, holder string, balance int) (*Card, error) {
	if balance < 0 {
		return nil, ErrInsufficientFunds
	}

	number := token.CardNumber(cardNumberGroups)

	const query = `
INSERT INTO cards (uuid, number, holder, balance)
VALUES ($1, $2, $3, $4)
RETURNING ` + cardColumns

	row := p.db.QueryRowContext(ctx, query, uuid.New().String(), number, holder, balance)
	return getCardByRow(row)
}

// CardByUUID returns a card by its UUID
func (p *Postgres) CardByUUID(ctx context.Context, cardUUID string) (*Card, error) {
	const query = `
SELECT ` + cardColumns + `
FROM cards
WHERE uuid = $1`

	if _, err := uuid.Parse(cardUUID); err != nil {
		return nil, sql.ErrNoRows
	}

	return getCardByRow(p.db.QueryRowContext(ctx, query, cardUUID))
}

// CardByNumber returns a card by the number printed on it
func (p *Postgres) CardByNumber(ctx context.Context, number string) (*Card, error) {
	const query = `
SELECT ` + cardColumns + `
FROM cards
WHERE number = $1`

	return getCardByRow(p.db.QueryRowContext(ctx, query, strings.ToUpper(number)))
}

// AdjustBalance changes the balance of the card
func (p *Postgres) AdjustBalance(ctx context.Context, card *Card, amount int, reason string) error {
	balance, err := adjustBalance(ctx, p.db, card.UUID, amount, nil, reason)
	if err != nil {
		return err
	}

	card.Balance = balance
	return nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func adjustBalance(ctx context.Context, e execer, cardUUID string, amount int, betID *string, reason string) (int, error) {
	const query = `SELECT adjust_balance($1, $2, $3, $4)`

	var balance int
	if err := e.QueryRowContext(ctx, query, cardUUID, amount, betID, reason).Scan(&balance); err != nil {
		return 0, translate(err)
	}

	return balance, nil
}

// CreateBet persists the bet and debits the stake from the card
// The new balance is returned
func (p *Postgres) CreateBet(ctx context.Context, bet *Bet) (int, error) {
	if bet.ID == "" {
		bet.ID = uuid.New().String()
	}

	var balance int
	err := p.inTx(ctx, func(tx *sql.Tx) error {
		const query = `
INSERT INTO bets (id, card_uuid, machine_id, round_id, amount)
VALUES ($1, $2, $3, $4, $5)
RETURNING created`

		row := tx.QueryRowContext(ctx, query, bet.ID, bet.CardUUID, bet.MachineID, bet.RoundID, bet.Amount)
		if err := row.Scan(&bet.Created); err != nil {
			return err
		}

		var err error
		balance, err = adjustBalance(ctx, tx, bet.CardUUID, -1*bet.Amount, &bet.ID, "bet placed")
		return err
	})

	if err != nil {
		return 0, err
	}

	return balance, nil
}

// BetByID returns a bet
func (p *Postgres) BetByID(ctx context.Context, id string) (*Bet, error) {
	const query = `
SELECT ` + betColumns + `
FROM bets
WHERE id = $1`

	if _, err := uuid.Parse(id); err != nil {
		return nil, sql.ErrNoRows
	}

	return getBetByRow(p.db.QueryRowContext(ctx, query, id))
}

// ResolveBet records the outcome of a bet
func (p *Postgres) ResolveBet(ctx context.Context, id string, prize int) (*Bet, error) {
	if prize < 0 {
		return nil, ErrNegativePrize
	}

	const query = `
UPDATE bets
SET resolved = TRUE, prize = $2, resolved_at = (NOW() AT TIME ZONE 'UTC')
WHERE id = $1 AND NOT resolved
RETURNING ` + betColumns

	bet, err := getBetByRow(p.db.QueryRowContext(ctx, query, id, prize))
	if err != nil {
		if err == sql.ErrNoRows {
			// either the bet doesn't exist or it was already resolved
			if _, err := p.BetByID(ctx, id); err != nil {
				return nil, err
			}

			return nil, ErrAlreadyResolved
		}

		return nil, err
	}

	return bet, nil
}

// PayBet credits the prize to the bet's card and marks the bet as paid
// The new balance is returned
func (p *Postgres) PayBet(ctx context.Context, bet *Bet) (int, error) {
	var balance int
	err := p.inTx(ctx, func(tx *sql.Tx) error {
		const lockQuery = `
SELECT ` + betColumns + `
FROM bets
WHERE id = $1
FOR UPDATE`

		current, err := getBetByRow(tx.QueryRowContext(ctx, lockQuery, bet.ID))
		if err != nil {
			return err
		}

		if !current.Resolved {
			return ErrNotResolved
		}

		if current.Paid {
			return ErrAlreadyPaid
		}

		const query = `
UPDATE bets
SET paid = TRUE, settled = (NOW() AT TIME ZONE 'UTC')
WHERE id = $1
RETURNING settled`

		if err := tx.QueryRowContext(ctx, query, bet.ID).Scan(&bet.Settled); err != nil {
			return err
		}

		balance, err = adjustBalance(ctx, tx, current.CardUUID, current.Prize, &bet.ID, "prize paid")
		return err
	})

	if err != nil {
		return 0, err
	}

	bet.Paid = true
	return balance, nil
}

func (p *Postgres) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logrus.WithError(rbErr).Error("could not rollback transaction")
		}

		return err
	}

	return tx.Commit()
}
