package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/target/storefront-go/internal/domain/auth"
	"github.com/target/storefront-go/internal/domain/model"
	"github.com/target/storefront-go/internal/service"
)

func newFlagSet(cc *commandContext, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cc.Out)
	return fs
}

func runLogin(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (or STOREFRONT_PASSWORD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password == "" {
		*password = os.Getenv("STOREFRONT_PASSWORD")
	}

	user, err := cc.App.Session.Login(cc.Ctx, strings.TrimSpace(*email), *password)
	if err != nil {
		return err
	}
	if err := writef(cc.Out, "Logged in as %s\n", user.Email); err != nil {
		return err
	}

	guest, err := cc.App.Cart.LoadLocal(cc.Ctx)
	if err != nil || len(guest.Items) == 0 {
		return nil
	}
	return writef(cc.Out, "Your guest cart still holds %d items. Run `storefront cart-merge` to add them to your account.\n",
		guest.Count())
}

func runLogout(cc *commandContext, _ []string) error {
	if err := cc.App.Session.Logout(cc.Ctx); err != nil {
		return err
	}
	return writeln(cc.Out, "Logged out")
}

func runWhoAmI(cc *commandContext, _ []string) error {
	st := cc.App.Session.State()
	if !st.IsAuthenticated() || st.User == nil {
		return writeln(cc.Out, "Not logged in")
	}
	return printUser(cc, *st.User)
}

func printUser(cc *commandContext, u auth.User) error {
	lines := [][2]string{
		{"Email", u.Email},
		{"Username", u.Username},
		{"Name", u.FullName()},
		{"Phone", u.Phone},
		{"Picture", u.ProfilePicture},
	}
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		if err := writef(cc.Out, "%-9s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}
	return nil
}

func runStaff(cc *commandContext, _ []string) error {
	if ok, err := requireLogin(cc); !ok {
		return err
	}
	cc.App.Session.FetchStaffStatus(cc.Ctx)
	if cc.App.Guard.RequireStaff(cc.App.Session.State()).Decision == service.DecisionAllow {
		return writeln(cc.Out, "staff: yes")
	}
	return writeln(cc.Out, "staff: no")
}

// requireLogin prints a hint and reports false when the session is anonymous.
func requireLogin(cc *commandContext) (bool, error) {
	res := cc.App.Guard.RequireAuth(cc.App.Session.State())
	if res.Decision == service.DecisionAllow {
		return true, nil
	}
	return false, writeln(cc.Out, "Not logged in. Run `storefront login` first.")
}

func runRegister(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "register")
	var in model.RegisterInput
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Username, "username", "", "username")
	fs.StringVar(&in.Password, "password", "", "password")
	fs.StringVar(&in.FirstName, "first", "", "first name")
	fs.StringVar(&in.LastName, "last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	in.RePassword = in.Password

	user, err := cc.App.Session.Register(cc.Ctx, in)
	if err != nil {
		return err
	}
	return writef(cc.Out, "Registered %s. Check your email to activate the account, then log in.\n", user.Email)
}

func runProfile(cc *commandContext, args []string) error {
	fs := newFlagSet(cc, "profile")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	username := fs.String("username", "", "username")
	phone := fs.String("phone", "", "phone number")
	avatar := fs.String("avatar", "", "path to a profile picture")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if ok, err := requireLogin(cc); !ok {
		return err
	}

	var (
		user auth.User
		err  error
	)
	switch {
	case set["avatar"]:
		data, readErr := os.ReadFile(*avatar)
		if readErr != nil {
			return fmt.Errorf("read avatar: %w", readErr)
		}
		user, err = cc.App.Profile.UploadAvatar(cc.Ctx, filepath.Base(*avatar), data)
	case len(set) > 0:
		var in model.ProfileInput
		if set["first"] {
			in.FirstName = first
		}
		if set["last"] {
			in.LastName = last
		}
		if set["username"] {
			in.Username = username
		}
		if set["phone"] {
			in.Phone = phone
		}
		user, err = cc.App.Profile.Patch(cc.Ctx, in)
	default:
		user, err = cc.App.Profile.Get(cc.Ctx)
	}
	if err != nil {
		return err
	}
	return printUser(cc, user)
}

func runTheme(cc *commandContext, args []string) error {
	prefs := cc.App.Preferences
	if len(args) > 0 {
		if err := prefs.SetTheme(cc.Ctx, args[0]); err != nil {
			return err
		}
	}
	theme, err := prefs.Theme(cc.Ctx)
	if err != nil {
		return err
	}
	return writef(cc.Out, "theme: %s (available: %s)\n", theme, strings.Join(prefs.Themes(), ", "))
}

func runLocale(cc *commandContext, args []string) error {
	prefs := cc.App.Preferences
	if len(args) > 0 {
		if err := prefs.SetLocale(cc.Ctx, args[0]); err != nil {
			return err
		}
	}
	locale, err := prefs.Locale(cc.Ctx)
	if err != nil {
		return err
	}
	return writef(cc.Out, "locale: %s (available: %s)\n", locale, strings.Join(prefs.Locales(), ", "))
}

var errUsage = errors.New("invalid arguments")

func usageErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errUsage, fmt.Sprintf(format, args...))
}
