package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gamingterminal-server/internal/jwt"
	"gamingterminal-server/pkg/ledger"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

var command = flag.String("c", "card", "specifies the command (card, topup, token)")

var reader = bufio.NewReader(os.Stdin)

func main() {
	flag.Parse()

	switch *command {
	case "card":
		holder, err := getInput("Holder")
		if err != nil || holder == "" {
			os.Exit(1)
		}

		balance := getAmount("Opening balance")

		card, err := ledger.NewPostgres().CreateCard(context.Background(), holder, balance)
		if err != nil {
			logrus.WithError(err).Fatal("could not create card")
		}

		fmt.Printf("Created card %s (%s) with a balance of %d\n", card.Number, card.UUID, card.Balance)

	case "topup":
		number, err := getInput("Card number")
		if err != nil || number == "" {
			os.Exit(1)
		}

		l := ledger.NewPostgres()
		card, err := l.CardByNumber(context.Background(), number)
		if err != nil {
			logrus.WithError(err).WithField("number", number).Fatal("could not find card")
		}

		amount := getAmount("Amount")
		if err := l.AdjustBalance(context.Background(), card, amount, "top up"); err != nil {
			logrus.WithError(err).Fatal("could not top up card")
		}

		fmt.Printf("Card %s has a balance of %d\n", card.Number, card.Balance)

	case "token":
		operator := getEmail()
		if operator == "" {
			os.Exit(1)
		}

		jwt.LoadKeys()
		token, err := jwt.Sign(operator)
		if err != nil {
			logrus.WithError(err).Fatal("could not sign token")
		}

		fmt.Println(token)

	default:
		logrus.Fatalf("unknown command: %s", *command)
	}
}

// prompt is only printed when a person is typing, so answers can be piped in
func prompt(question string) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Printf("%s: ", question)
	}
}

func getEmail() string {
	for {
		str, err := getInput("Operator email")
		if err != nil {
			logrus.WithError(err).Warn("could not read email")
			return ""
		}

		if str == "" {
			return ""
		}

		if err := checkmail.ValidateFormat(str); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			continue
		}

		return str
	}
}

func getAmount(question string) int {
	for {
		str, err := getInput(question)
		if err != nil {
			logrus.WithError(err).Fatal("could not get answer")
		}

		amount, err := strconv.Atoi(str)
		if err != nil {
			_, _ = fmt.Fprintln(os.Stderr, "amount must be a whole number")
			continue
		}

		return amount
	}
}

func getInput(question string) (string, error) {
	prompt(question)
	str, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(str), nil
}
