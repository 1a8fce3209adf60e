package ledger

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"gamingterminal-server/internal/config"
	"gamingterminal-server/internal/util"
	"gamingterminal-server/pkg/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var cbg = context.Background()

type store interface {
	CreateCard(ctx context.Context, holder string, balance int) (*Card, error)
	CardByUUID(ctx context.Context, cardUUID string) (*Card, error)
	CardByNumber(ctx context.Context, number string) (*Card, error)
	AdjustBalance(ctx context.Context, card *Card, amount int, reason string) error
	CreateBet(ctx context.Context, bet *Bet) (int, error)
	BetByID(ctx context.Context, id string) (*Bet, error)
	ResolveBet(ctx context.Context, id string, prize int) (*Bet, error)
	PayBet(ctx context.Context, bet *Bet) (int, error)
}

// stores returns every ledger implementation that can run in this environment
func stores(t *testing.T) map[string]store {
	t.Helper()

	s := map[string]store{"memory": NewMemory()}
	if os.Getenv("GTS_PG_DSN") == "" {
		t.Log("GTS_PG_DSN is not set, skipping postgres")
		return s
	}

	defer util.SetEnv("GTS_MIGRATIONS_PATH", "../../sql")()
	if err := config.Load(); err != nil {
		t.Fatal(err)
	}

	db.Migrate()
	s["postgres"] = NewPostgres()
	return s
}

func TestLedger_Cards(t *testing.T) {
	for name, l := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := assert.New(t)

			c, err := l.CreateCard(cbg, "Jane Doe", 500)
			a.NoError(err)
			a.NotEmpty(c.UUID)
			a.Regexp("^[A-Z2-9]{4}-[A-Z2-9]{4}-[A-Z2-9]{4}$", c.Number)
			a.Equal(c.Number, c.Serial())
			a.Equal(500, c.Balance)

			loaded, err := l.CardByUUID(cbg, c.UUID)
			a.NoError(err)
			a.Equal(c.Number, loaded.Number)
			a.Equal("Jane Doe", loaded.Holder)
			a.False(c == loaded, "every load returns a new handle")

			loaded, err = l.CardByNumber(cbg, c.Number)
			a.NoError(err)
			a.Equal(c.UUID, loaded.UUID)

			_, err = l.CardByUUID(cbg, uuid.New().String())
			a.Equal(sql.ErrNoRows, err)

			_, err = l.CardByUUID(cbg, "not-a-uuid")
			a.Equal(sql.ErrNoRows, err)

			_, err = l.CreateCard(cbg, "Overdrawn", -1)
			a.Equal(ErrInsufficientFunds, err)
		})
	}
}

func TestLedger_AdjustBalance(t *testing.T) {
	for name, l := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := assert.New(t)

			c, _ := l.CreateCard(cbg, "Jane Doe", 100)
			a.NoError(l.AdjustBalance(cbg, c, 50, "top up"))
			a.Equal(150, c.Balance)

			a.NoError(l.AdjustBalance(cbg, c, -150, "cash out"))
			a.Equal(0, c.Balance)

			a.Equal(ErrInsufficientFunds, l.AdjustBalance(cbg, c, -1, "overdraft"))
			a.Equal(0, c.Balance)

			loaded, _ := l.CardByUUID(cbg, c.UUID)
			a.Equal(0, loaded.Balance)
		})
	}
}

func TestLedger_BetLifecycle(t *testing.T) {
	for name, l := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := assert.New(t)

			c, _ := l.CreateCard(cbg, "Jane Doe", 100)
			bet := &Bet{
				CardUUID:  c.UUID,
				MachineID: "machine-1",
				RoundID:   uuid.New().String(),
				Amount:    40,
			}

			balance, err := l.CreateBet(cbg, bet)
			a.NoError(err)
			a.Equal(60, balance)
			a.NotEmpty(bet.ID)
			a.False(bet.Created.IsZero())

			loaded, err := l.BetByID(cbg, bet.ID)
			a.NoError(err)
			a.Equal(40, loaded.Amount)
			a.False(loaded.IsResolved())
			a.Nil(loaded.Card())

			_, err = l.PayBet(cbg, loaded)
			a.Equal(ErrNotResolved, err)

			_, err = l.ResolveBet(cbg, bet.ID, -5)
			a.Equal(ErrNegativePrize, err)

			resolved, err := l.ResolveBet(cbg, bet.ID, 120)
			a.NoError(err)
			a.True(resolved.IsResolved())
			a.Equal(120, resolved.Prize)
			a.False(resolved.ResolvedAt.IsZero())

			_, err = l.ResolveBet(cbg, bet.ID, 10)
			a.Equal(ErrAlreadyResolved, err)

			balance, err = l.PayBet(cbg, resolved)
			a.NoError(err)
			a.Equal(180, balance)
			a.True(resolved.Paid)

			_, err = l.PayBet(cbg, resolved)
			a.Equal(ErrAlreadyPaid, err)

			loaded, _ = l.BetByID(cbg, bet.ID)
			a.True(loaded.Paid)
			a.False(loaded.Settled.IsZero())

			_, err = l.ResolveBet(cbg, uuid.New().String(), 10)
			a.Equal(sql.ErrNoRows, err)
		})
	}
}

func TestLedger_CreateBet_insufficientFunds(t *testing.T) {
	for name, l := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := assert.New(t)

			c, _ := l.CreateCard(cbg, "Jane Doe", 10)
			bet := &Bet{CardUUID: c.UUID, MachineID: "machine-1", RoundID: "round-1", Amount: 11}

			_, err := l.CreateBet(cbg, bet)
			a.Equal(ErrInsufficientFunds, err)

			_, err = l.BetByID(cbg, bet.ID)
			a.Equal(sql.ErrNoRows, err)

			loaded, _ := l.CardByUUID(cbg, c.UUID)
			a.Equal(10, loaded.Balance)
		})
	}
}

func TestBet_BindCard(t *testing.T) {
	a := assert.New(t)

	c := &Card{UUID: uuid.New().String(), Number: "AAAA-BBBB-CCCC"}
	b := &Bet{Resolved: true}
	a.Nil(b.Card())

	b.BindCard(c)
	a.Equal(c, b.Card())
	a.True(b.IsResolved())
	a.Equal("AAAA-BBBB-CCCC:"+c.UUID, c.String())
}
