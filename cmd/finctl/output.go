package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"finance-client/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func (a *app) printTransactions(txs []models.Transaction) error {
	if a.json {
		if txs == nil {
			txs = []models.Transaction{}
		}
		return writeJSON(a.stdout, txs)
	}
	if len(txs) == 0 {
		fmt.Fprintln(a.stdout, "No transactions")
		return nil
	}
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tAMOUNT\tCATEGORY\tDESCRIPTION")
	for _, t := range txs {
		category := t.CategoryName
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date, t.Type, t.Signed().StringFixed(2), category, t.Description)
	}
	return tw.Flush()
}

func (a *app) printCategories(cats []models.Category) error {
	if a.json {
		if cats == nil {
			cats = []models.Category{}
		}
		return writeJSON(a.stdout, cats)
	}
	if len(cats) == 0 {
		fmt.Fprintln(a.stdout, "No categories")
		return nil
	}
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tCOLOR")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.Type, c.Color)
	}
	return tw.Flush()
}

func (a *app) printSummary(sum *models.Summary) error {
	if sum == nil {
		sum = &models.Summary{}
	}
	if a.json {
		return writeJSON(a.stdout, sum)
	}
	tw := newTable(a.stdout)
	fmt.Fprintf(tw, "Income\t%s\n", sum.TotalIncome.StringFixed(2))
	fmt.Fprintf(tw, "Expenses\t%s\n", sum.TotalExpense.StringFixed(2))
	fmt.Fprintf(tw, "Balance\t%s\n", sum.Balance.StringFixed(2))
	return tw.Flush()
}

// printLedger shows the transactions and summary refreshed after a mutation.
func (a *app) printLedger() error {
	st := a.ctrl.State()
	if a.json {
		summary := st.Summary
		if summary == nil {
			summary = &models.Summary{}
		}
		txs := st.Transactions
		if txs == nil {
			txs = []models.Transaction{}
		}
		return writeJSON(a.stdout, struct {
			Transactions []models.Transaction `json:"transactions"`
			Summary      *models.Summary      `json:"summary"`
		}{txs, summary})
	}
	if err := a.printTransactions(st.Transactions); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout)
	return a.printSummary(st.Summary)
}

func (a *app) printProducts(products []models.Product) error {
	if a.json {
		return writeJSON(a.stdout, products)
	}
	if len(products) == 0 {
		fmt.Fprintln(a.stdout, "No products")
		return nil
	}
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tDESCRIPTION")
	for _, p := range products {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Price.StringFixed(2), p.Description)
	}
	return tw.Flush()
}

func (a *app) printSessions(sessions []models.Session) error {
	if a.json {
		if sessions == nil {
			sessions = []models.Session{}
		}
		return writeJSON(a.stdout, sessions)
	}
	if len(sessions) == 0 {
		fmt.Fprintln(a.stdout, "No stored sessions")
		return nil
	}
	tw := newTable(a.stdout)
	fmt.Fprintln(tw, "API\tUSER\tEXPIRES\tLAST USED")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.APIURL, s.User.Email, formatTime(s.ExpiresAt), formatTime(s.LastUsedAt))
	}
	return tw.Flush()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
