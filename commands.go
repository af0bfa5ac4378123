package main

import (
	"bufio"
	"fmt"
	"strings"

	"stockroom/internal/checkout"
	"stockroom/internal/client"
	"stockroom/internal/console"
	"stockroom/internal/models"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func newClient(c *cli.Context, logger *zap.Logger) *client.Client {
	return client.New(client.Config{
		BaseURL: c.String("url"),
		Token:   c.String("token"),
		Timeout: c.Duration("timeout"),
	}, logger)
}

func newSession(c *cli.Context, logger *zap.Logger) (*console.Session, error) {
	mode, err := checkout.ParseMode(c.String("mode"))
	if err != nil {
		return nil, err
	}
	return console.NewSession(newClient(c, logger), mode, logger), nil
}

// report prints n and turns error notices into a non-zero exit.
func report(c *cli.Context, n console.Notice) error {
	if n.IsZero() {
		return nil
	}
	if n.Level == console.LevelError {
		return cli.Exit(n.String(), 1)
	}
	fmt.Fprintln(c.App.Writer, n)
	return nil
}

// loaded returns a session holding the current stock, or the failure notice.
func loaded(c *cli.Context, logger *zap.Logger) (*console.Session, error) {
	s, err := newSession(c, logger)
	if err != nil {
		return nil, err
	}
	if n := s.Refresh(c.Context); n.Level == console.LevelError {
		return nil, report(c, n)
	}
	s.Dismiss()
	return s, nil
}

func listCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "show the stock table",
		Action: func(c *cli.Context) error {
			s, err := loaded(c, logger)
			if err != nil {
				return err
			}
			return s.Render(c.App.Writer)
		},
	}
}

func productFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "code", Required: true},
		&cli.StringFlag{Name: "name", Required: true},
		&cli.StringFlag{Name: "price", Value: "0"},
		&cli.IntFlag{Name: "qty"},
	}
}

func productFromFlags(c *cli.Context) (models.Product, error) {
	price, err := decimal.NewFromString(c.String("price"))
	if err != nil {
		return models.Product{}, cli.Exit(fmt.Sprintf("invalid price %q", c.String("price")), 1)
	}
	return models.Product{
		Code:     c.String("code"),
		Name:     c.String("name"),
		Price:    price,
		Quantity: c.Int("qty"),
	}, nil
}

func addCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "add a product or replace the one with the same code",
		Flags: productFlags(),
		Action: func(c *cli.Context) error {
			product, err := productFromFlags(c)
			if err != nil {
				return err
			}
			s, err := newSession(c, logger)
			if err != nil {
				return err
			}
			return report(c, s.Add(c.Context, product))
		},
	}
}

func editCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "edit",
		Usage: "change an existing product",
		Flags: productFlags(),
		Action: func(c *cli.Context) error {
			product, err := productFromFlags(c)
			if err != nil {
				return err
			}
			s, err := newSession(c, logger)
			if err != nil {
				return err
			}
			return report(c, s.Edit(c.Context, product))
		},
	}
}

func sellCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "sell",
		Usage:     "sell units of a product",
		ArgsUsage: "CODE",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "qty", Value: 1},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("sell needs exactly one product code", 2)
			}
			s, err := loaded(c, logger)
			if err != nil {
				return err
			}
			return report(c, s.Sell(c.Context, c.Args().First(), c.Int("qty")))
		},
	}
}

func deleteCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "remove a product",
		ArgsUsage: "CODE",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("delete needs exactly one product code", 2)
			}
			s, err := loaded(c, logger)
			if err != nil {
				return err
			}
			var confirm console.ConfirmFunc
			if !c.Bool("yes") {
				confirm = prompt(c)
			}
			return report(c, s.Delete(c.Context, c.Args().First(), confirm))
		},
	}
}

// prompt asks on the app reader, defaulting to no.
func prompt(c *cli.Context) console.ConfirmFunc {
	return func(p models.Product) bool {
		fmt.Fprintf(c.App.Writer, "Delete %s (%s)? [y/N] ", p.Code, p.Name)
		line, _ := bufio.NewReader(c.App.Reader).ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func scanCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "sell one unit per scanned code read from stdin",
		Action: func(c *cli.Context) error {
			s, err := loaded(c, logger)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, "Scanning, end input to stop.")
			return s.Scan(c.Context, c.App.Reader, c.App.Writer)
		},
	}
}

func salesCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "sales",
		Usage: "show the sales ledger",
		Action: func(c *cli.Context) error {
			s, err := newSession(c, logger)
			if err != nil {
				return err
			}
			return report(c, s.Sales(c.Context, c.App.Writer))
		},
	}
}

func loginCommand(logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "print a bearer token for INVENTORY_TOKEN",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.BoolFlag{Name: "register", Usage: "create the account first"},
		},
		Action: func(c *cli.Context) error {
			cl := newClient(c, logger)
			if c.Bool("register") {
				if _, err := cl.Register(c.Context, c.String("username"), c.String("password")); err != nil {
					return cli.Exit(fmt.Sprintf("register: %v", err), 1)
				}
			}
			token, err := cl.Login(c.Context, c.String("username"), c.String("password"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("login: %v", err), 1)
			}
			fmt.Fprintln(c.App.Writer, token)
			return nil
		},
	}
}
