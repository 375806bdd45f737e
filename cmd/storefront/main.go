// Command storefront drives the storefront API from a terminal. Session tokens, the
// guest cart and preferences persist in the configured store between invocations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/target/storefront-go/config"
	"github.com/target/storefront-go/internal/bootstrap"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/service"
)

type commandFn func(cc *commandContext, args []string) error

type command struct {
	name        string
	usage       string
	description string
	run         commandFn
	// standalone commands do not build the client or hydrate the session.
	standalone bool
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	App    *bootstrap.App
	In     io.Reader
	Out    io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code) //nolint:forbidigo // CLI must propagate the command status to the shell
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) < 1 {
		_ = printUsage(errOut)
		return 2
	}
	cmd, ok := commands()[args[0]]
	if !ok {
		_ = writef(errOut, "unknown command %q\n\n", args[0])
		_ = printUsage(errOut)
		return 2
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		_ = writef(errOut, "load config: %v\n", err)
		return 1
	}
	logger := bootstrap.InitLogger(cfg.LogLevel, cfg.IsDev)

	cc := &commandContext{Ctx: ctx, Logger: logger, Config: cfg, In: in, Out: out}
	if !cmd.standalone {
		app, buildErr := bootstrap.BuildApp(ctx, cfg, bootstrap.AppOptions{Logger: logger})
		if buildErr != nil {
			_ = writef(errOut, "%v\n", buildErr)
			return 1
		}
		defer func() {
			if closeErr := app.Close(); closeErr != nil {
				logger.Warn("close app", "error", closeErr)
			}
		}()
		cc.App = app
	}

	if err := dispatch(cc, cmd, args[1:]); err != nil {
		logger.DebugContext(ctx, "command failed", "command", cmd.name, "error", err)
		_ = writeln(errOut, describeError(err))
		return 1
	}
	return 0
}

// dispatch hydrates the session when the command needs one and runs it.
func dispatch(cc *commandContext, cmd command, args []string) error {
	if !cmd.standalone {
		if err := cc.App.Session.Hydrate(cc.Ctx); err != nil && !errors.Is(err, service.ErrAlreadyHydrated) {
			return fmt.Errorf("restore session: %w", err)
		}
	}
	return cmd.run(cc, args)
}

// describeError renders err the way the storefront pages do: field messages inline,
// a login hint once the session is gone, the normalized message otherwise.
func describeError(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	switch apperrors.Present(err) {
	case apperrors.PresentRedirect:
		return appErr.Message + "\nRun `storefront login` to sign in again."
	case apperrors.PresentInline:
		fields := appErr.FieldErrors()
		if len(fields) == 0 {
			return appErr.Message
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		var b strings.Builder
		b.WriteString(appErr.Message)
		for _, name := range names {
			fmt.Fprintf(&b, "\n  %s: %s", name, strings.Join(fields[name], " "))
		}
		return b.String()
	default:
		return appErr.Message
	}
}

func commands() map[string]command {
	list := []command{
		{name: "login", usage: "-email E -password P", description: "Log in", run: runLogin},
		{name: "logout", description: "Log out and forget stored tokens", run: runLogout},
		{name: "whoami", description: "Show the logged-in user", run: runWhoAmI},
		{name: "staff", description: "Show whether the user is staff", run: runStaff},
		{name: "register", usage: "-email E -username U -password P", description: "Create an account", run: runRegister},
		{name: "products", usage: "[-search S] [-category C] [-page N]", description: "List products", run: runProducts},
		{name: "product", usage: "<slug>", description: "Show a product and its reviews", run: runProduct},
		{name: "product-new", usage: "-name N -price P -category ID", description: "Create a product (staff)", run: runProductNew},
		{name: "categories", description: "List categories", run: runCategories},
		{name: "cart", description: "Show the cart", run: runCart},
		{name: "cart-add", usage: "[-qty N] <slug>", description: "Add a product to the cart", run: runCartAdd},
		{name: "cart-remove", usage: "<product-id>", description: "Remove a product from the cart", run: runCartRemove},
		{name: "cart-merge", description: "Add the guest cart to the logged-in cart", run: runCartMerge},
		{name: "cart-clear", description: "Empty the cart", run: runCartClear},
		{name: "order", usage: "-address A [-phone P]", description: "Place an order from the cart", run: runOrder},
		{name: "orders", usage: "[id]", description: "List orders or show one", run: runOrders},
		{name: "review", usage: "-rating N -comment C [-id ID] [-delete] <slug>", description: "Write, edit or delete a review", run: runReview},
		{name: "profile", usage: "[-first F] [-last L] [-username U] [-phone P] [-avatar FILE]", description: "Show or edit the profile", run: runProfile},
		{name: "theme", usage: "[name]", description: "Show or set the theme", run: runTheme},
		{name: "locale", usage: "[code]", description: "Show or set the locale", run: runLocale},
		{name: "chat", usage: "[-message M] [-wait D] <product-id>", description: "Chat in a product room", run: runChat},
		{name: "migrate", description: "Create the Postgres storage table", run: runMigrate, standalone: true},
	}
	out := make(map[string]command, len(list))
	for _, c := range list {
		out[c.name] = c
	}
	return out
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: storefront <command> [flags]\n\nAvailable commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-12s %-40s %s\n", c.name, c.usage, c.description); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
