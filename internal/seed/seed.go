// Package seed loads the SYSCOHADA chart of accounts and other base data
// into an empty database.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/ongbook-dev/ongbook/internal/model"
	"github.com/ongbook-dev/ongbook/internal/store"
)

//go:embed data.yaml
var dataYAML []byte

type seedData struct {
	Currencies []struct {
		Code     string `yaml:"code"`
		Name     string `yaml:"name"`
		Symbol   string `yaml:"symbol"`
		BaseRate string `yaml:"base_rate"`
	} `yaml:"currencies"`
	Journals []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
		Type string `yaml:"type"`
	} `yaml:"journals"`
	Categories []struct {
		Code string `yaml:"code"`
		Name string `yaml:"name"`
		Rank int    `yaml:"rank"`
	} `yaml:"categories"`
	Accounts []struct {
		Number string `yaml:"number"`
		Name   string `yaml:"name"`
		Class  int    `yaml:"class"`
		Type   string `yaml:"type"`
	} `yaml:"accounts"`
}

// Apply loads the base data into the store. It is a no-op when the chart
// of accounts is already populated.
func Apply(ctx context.Context, st *store.Store, log *slog.Logger) error {
	n, err := st.CountAccounts(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Debug("base data already loaded", "accounts", n)
		return nil
	}

	var data seedData
	if err := yaml.Unmarshal(dataYAML, &data); err != nil {
		return fmt.Errorf("parsing seed data: %w", err)
	}

	for _, c := range data.Currencies {
		rate, err := decimal.NewFromString(c.BaseRate)
		if err != nil {
			return fmt.Errorf("currency %s: %w", c.Code, err)
		}
		cur := model.Currency{Code: c.Code, Name: c.Name, Symbol: c.Symbol, BaseRate: rate}
		if err := st.CreateCurrency(ctx, &cur); err != nil {
			return fmt.Errorf("seeding currency %s: %w", c.Code, err)
		}
	}

	for _, j := range data.Journals {
		journal := model.Journal{Code: j.Code, Name: j.Name, Type: model.JournalType(j.Type)}
		if err := st.CreateJournal(ctx, &journal); err != nil {
			return fmt.Errorf("seeding journal %s: %w", j.Code, err)
		}
	}

	for _, c := range data.Categories {
		cat := model.BudgetCategory{Code: c.Code, Name: c.Name, Rank: c.Rank}
		if err := st.CreateBudgetCategory(ctx, &cat); err != nil {
			return fmt.Errorf("seeding category %s: %w", c.Code, err)
		}
	}

	for _, a := range data.Accounts {
		acc := model.Account{
			Number: a.Number,
			Name:   a.Name,
			Class:  a.Class,
			Type:   model.AccountType(a.Type),
			Active: true,
		}
		if err := st.CreateAccount(ctx, &acc); err != nil {
			return fmt.Errorf("seeding account %s: %w", a.Number, err)
		}
	}

	// Open the current calendar year so capture can start right away.
	year := time.Now().Year()
	fy := model.FiscalYear{
		Year:      year,
		StartDate: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	if err := st.CreateFiscalYear(ctx, &fy); err != nil {
		return fmt.Errorf("seeding fiscal year %d: %w", year, err)
	}

	log.Info("base data loaded",
		"currencies", len(data.Currencies),
		"journals", len(data.Journals),
		"categories", len(data.Categories),
		"accounts", len(data.Accounts))
	return nil
}
