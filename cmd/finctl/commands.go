package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"finance-client/internal/api"
	"finance-client/internal/ledger"
	"finance-client/internal/models"

	"github.com/shopspring/decimal"
)

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

// parseWithID parses flags around a single positional id, so both
// "rm 5" and "update 5 -name x" work.
func parseWithID(fs *flag.FlagSet, args []string) (int64, error) {
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() == 0 {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(fs.Arg(0), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", fs.Arg(0))
	}
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return 0, err
	}
	return id, nil
}

func parsePeriod(from, to string) (models.Date, models.Date, error) {
	var f, t models.Date
	var err error
	if from != "" {
		if f, err = models.ParseDate(from); err != nil {
			return f, t, err
		}
	}
	if to != "" {
		if t, err = models.ParseDate(to); err != nil {
			return f, t, err
		}
	}
	return f, t, nil
}

func (a *app) password(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(a.stdout, "Password: ")
	password, err := readPassword(a.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(a.stdout)
	if strings.TrimSpace(password) == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return password, nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "login")
	email := fs.String("email", "", "Account email")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}
	password, err := a.password(*passwordFlag)
	if err != nil {
		return err
	}
	if err := a.ctrl.Login(ctx, *email, password); err != nil {
		return fmt.Errorf("login failed: %s", api.Message(err))
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", a.ctrl.State().User.DisplayName())
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "register")
	email := fs.String("email", "", "Account email")
	first := fs.String("first", "", "First name")
	last := fs.String("last", "", "Last name")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{{"email", *email}, {"first", *first}, {"last", *last}} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}

	password, err := a.password(*passwordFlag)
	if err != nil {
		return err
	}
	if err := a.ctrl.Register(ctx, *email, password, *first, *last); err != nil {
		return fmt.Errorf("registration failed: %s", api.Message(err))
	}
	fmt.Fprintf(a.stdout, "Registered and logged in as %s\n", a.ctrl.State().User.DisplayName())
	return nil
}

func cmdLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.ctrl.Logout(ctx); err != nil {
		return explain("logout", err)
	}
	fmt.Fprintln(a.stdout, "Logged out")
	return nil
}

func cmdWhoami(_ context.Context, a *app, _ []string) error {
	st := a.ctrl.State()
	if !st.Authenticated {
		return ledger.ErrNotAuthenticated
	}
	if a.json {
		return writeJSON(a.stdout, st.User)
	}
	fmt.Fprintf(a.stdout, "%s <%s> (id %d) at %s\n", st.User.DisplayName(), st.User.Email, st.User.ID, a.client.BaseURL())
	return nil
}

func cmdSessions(ctx context.Context, a *app, _ []string) error {
	sessions, err := a.db.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return a.printSessions(sessions)
}

func subcommand(args []string, group string, subs map[string]command) (command, []string, error) {
	if len(args) == 0 {
		return nil, nil, fmt.Errorf("%s: missing subcommand", group)
	}
	cmd, ok := subs[args[0]]
	if !ok {
		return nil, nil, fmt.Errorf("%s: unknown subcommand %q", group, args[0])
	}
	return cmd, args[1:], nil
}

func cmdTx(ctx context.Context, a *app, args []string) error {
	cmd, rest, err := subcommand(args, "tx", map[string]command{
		"list": cmdTxList,
		"add":  cmdTxAdd,
		"rm":   cmdTxRemove,
	})
	if err != nil {
		return err
	}
	return cmd(ctx, a, rest)
}

func cmdTxList(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "tx list")
	from := fs.String("from", "", "Earliest date (YYYY-MM-DD)")
	to := fs.String("to", "", "Latest date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, t, err := parsePeriod(*from, *to)
	if err != nil {
		return err
	}
	if err := a.ctrl.SetPeriod(f, t); err != nil {
		return err
	}
	if err := a.ctrl.FetchTransactions(ctx); err != nil {
		return explain("list transactions", err)
	}
	return a.printTransactions(a.ctrl.State().Transactions)
}

func cmdTxAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "tx add")
	amount := fs.String("amount", "", "Amount, e.g. 12.50")
	kind := fs.String("type", string(models.Expense), "expense or income")
	desc := fs.String("desc", "", "Description")
	date := fs.String("date", "", "Date (YYYY-MM-DD, default today)")
	category := fs.Int64("category", 0, "Category ID (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	n := api.NewTransaction{
		Type:        models.TxType(*kind),
		Description: *desc,
		Date:        models.Today(),
	}
	if *amount != "" {
		d, err := decimal.NewFromString(*amount)
		if err != nil {
			return fmt.Errorf("invalid amount %q", *amount)
		}
		n.Amount = d
	}
	if *date != "" {
		d, err := models.ParseDate(*date)
		if err != nil {
			return err
		}
		n.Date = d
	}
	if *category > 0 {
		n.CategoryID = category
	}

	created, err := a.ctrl.CreateTransaction(ctx, n)
	if err != nil {
		return explain("add transaction", err)
	}
	if !a.json {
		fmt.Fprintf(a.stdout, "Added transaction %d\n\n", created.ID)
	}
	return a.printLedger()
}

func cmdTxRemove(ctx context.Context, a *app, args []string) error {
	id, err := parseWithID(newFlagSet(a, "tx rm"), args)
	if err != nil {
		return err
	}
	if err := a.ctrl.DeleteTransaction(ctx, id); err != nil {
		return explain("delete transaction", err)
	}
	if !a.json {
		fmt.Fprintf(a.stdout, "Deleted transaction %d\n\n", id)
	}
	return a.printLedger()
}

func cmdCat(ctx context.Context, a *app, args []string) error {
	cmd, rest, err := subcommand(args, "cat", map[string]command{
		"list": cmdCatList,
		"add":  cmdCatAdd,
		"rm":   cmdCatRemove,
	})
	if err != nil {
		return err
	}
	return cmd(ctx, a, rest)
}

func cmdCatList(ctx context.Context, a *app, _ []string) error {
	if err := a.ctrl.FetchCategories(ctx); err != nil {
		return explain("list categories", err)
	}
	return a.printCategories(a.ctrl.State().Categories)
}

func cmdCatAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "cat add")
	name := fs.String("name", "", "Category name")
	kind := fs.String("type", string(models.Expense), "expense or income")
	color := fs.String("color", "", "Hex color, e.g. #10B981 (server default when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	created, err := a.ctrl.CreateCategory(ctx, api.NewCategory{
		Name:  *name,
		Type:  models.TxType(*kind),
		Color: *color,
	})
	if err != nil {
		return explain("add category", err)
	}
	if !a.json {
		fmt.Fprintf(a.stdout, "Added category %d\n\n", created.ID)
	}
	return a.printCategories(a.ctrl.State().Categories)
}

func cmdCatRemove(ctx context.Context, a *app, args []string) error {
	id, err := parseWithID(newFlagSet(a, "cat rm"), args)
	if err != nil {
		return err
	}
	if err := a.ctrl.DeleteCategory(ctx, id); err != nil {
		return explain("delete category", err)
	}
	if !a.json {
		fmt.Fprintf(a.stdout, "Deleted category %d\n\n", id)
	}
	return a.printCategories(a.ctrl.State().Categories)
}

func cmdSummary(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "summary")
	from := fs.String("from", "", "Earliest date (YYYY-MM-DD)")
	to := fs.String("to", "", "Latest date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f, t, err := parsePeriod(*from, *to)
	if err != nil {
		return err
	}
	if err := a.ctrl.SetPeriod(f, t); err != nil {
		return err
	}
	if err := a.ctrl.FetchSummary(ctx); err != nil {
		return explain("load summary", err)
	}
	return a.printSummary(a.ctrl.State().Summary)
}

func cmdProduct(ctx context.Context, a *app, args []string) error {
	cmd, rest, err := subcommand(args, "product", map[string]command{
		"list":   cmdProductList,
		"get":    cmdProductGet,
		"add":    cmdProductAdd,
		"update": cmdProductUpdate,
		"rm":     cmdProductRemove,
	})
	if err != nil {
		return err
	}
	return cmd(ctx, a, rest)
}

func cmdProductList(ctx context.Context, a *app, _ []string) error {
	products, err := a.client.ListProducts(ctx)
	if err != nil {
		return explain("list products", err)
	}
	return a.printProducts(products)
}

func cmdProductGet(ctx context.Context, a *app, args []string) error {
	id, err := parseWithID(newFlagSet(a, "product get"), args)
	if err != nil {
		return err
	}
	p, err := a.client.GetProduct(ctx, id)
	if err != nil {
		return explain("get product", err)
	}
	return a.printProducts([]models.Product{*p})
}

func productFlags(fs *flag.FlagSet) (name, price, desc *string) {
	name = fs.String("name", "", "Product name")
	price = fs.String("price", "", "Price, e.g. 9.99")
	desc = fs.String("desc", "", "Description")
	return name, price, desc
}

func cmdProductAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "product add")
	name, price, desc := productFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	in := api.ProductInput{Name: *name, Description: *desc}
	if *price != "" {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid price %q", *price)
		}
		in.Price = d
	}
	p, err := a.client.CreateProduct(ctx, in)
	if err != nil {
		return explain("add product", err)
	}
	return a.printProducts([]models.Product{*p})
}

func cmdProductUpdate(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet(a, "product update")
	name, price, desc := productFlags(fs)
	id, err := parseWithID(fs, args)
	if err != nil {
		return err
	}

	current, err := a.client.GetProduct(ctx, id)
	if err != nil {
		return explain("update product", err)
	}
	in := api.ProductInput{Name: current.Name, Description: current.Description, Price: current.Price}
	if *name != "" {
		in.Name = *name
	}
	if *desc != "" {
		in.Description = *desc
	}
	if *price != "" {
		d, err := decimal.NewFromString(*price)
		if err != nil {
			return fmt.Errorf("invalid price %q", *price)
		}
		in.Price = d
	}

	p, err := a.client.UpdateProduct(ctx, id, in)
	if err != nil {
		return explain("update product", err)
	}
	return a.printProducts([]models.Product{*p})
}

func cmdProductRemove(ctx context.Context, a *app, args []string) error {
	id, err := parseWithID(newFlagSet(a, "product rm"), args)
	if err != nil {
		return err
	}
	if err := a.client.DeleteProduct(ctx, id); err != nil {
		return explain("delete product", err)
	}
	fmt.Fprintf(a.stdout, "Deleted product %d\n", id)
	return nil
}
