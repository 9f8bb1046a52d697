package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jaekwang-park/todolist/internal/frontend"
	"github.com/jaekwang-park/todolist/internal/model"
	"github.com/jaekwang-park/todolist/internal/tui"
)

type command func(ctx context.Context, d *deps, args []string) error

var commands = map[string]command{
	"signup":   cmdSignup,
	"confirm":  cmdConfirm,
	"login":    cmdLogin,
	"logout":   cmdLogout,
	"whoami":   cmdWhoami,
	"list":     cmdList,
	"add":      cmdAdd,
	"toggle":   cmdToggle,
	"rm":       cmdRemove,
	"clear":    cmdClear,
	"username": cmdUsername,
	"passwd":   cmdPasswd,
	"ui":       cmdUI,
}

var stdin = bufio.NewReader(os.Stdin)

// prompt reads one line from stdin when a flag was left empty.
func prompt(label, current string) string {
	if current != "" {
		return current
	}
	fmt.Fprint(os.Stderr, label+": ")
	line, _ := stdin.ReadString('\n')
	return strings.TrimRight(line, "\r\n")
}

func cmdSignup(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	username := fs.String("username", "", "username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := frontend.NewAuthForm(d.sessions, d.api)
	form.Mode = frontend.ModeSignup
	_, notice, err := form.Submit(ctx, frontend.Credentials{
		Email:    prompt("Email", *email),
		Password: prompt("Password", *password),
		Username: prompt("Username", *username),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, notice)
	return nil
}

func cmdConfirm(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("confirm", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	code := fs.String("code", "", "confirmation code from the email")
	resend := fs.Bool("resend", false, "send a new code instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := frontend.NewAuthForm(d.sessions, d.api)
	addr := prompt("Email", *email)

	var notice string
	var err error
	if *resend {
		notice, err = form.ResendCode(ctx, addr)
	} else {
		notice, err = form.Confirm(ctx, addr, prompt("Code", *code))
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, notice)
	return nil
}

func cmdLogin(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := frontend.NewAuthForm(d.sessions, d.api)
	s, _, err := form.Submit(ctx, frontend.Credentials{
		Email:    prompt("Email", *email),
		Password: prompt("Password", *password),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Signed in as %s\n", s.User.Email)
	return nil
}

func cmdLogout(ctx context.Context, d *deps, _ []string) error {
	if err := d.sessions.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "Signed out.")
	return nil
}

func cmdWhoami(ctx context.Context, d *deps, _ []string) error {
	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	fmt.Fprintln(d.out, app.View().Header)
	return nil
}

func cmdList(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	filter := fs.String("filter", string(model.FilterAll), "all, active or completed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	f := model.Filter(*filter)
	if !f.IsValid() {
		return fmt.Errorf("invalid filter %q", *filter)
	}

	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	app.SetFilter(f)
	printTodos(d, app.View())
	return nil
}

func printTodos(d *deps, v frontend.View) {
	if v.Empty {
		fmt.Fprintln(d.out, "Nothing here.")
	}
	for _, t := range v.Visible {
		box := "[ ]"
		if t.Completed {
			box = "[x]"
		}
		fmt.Fprintf(d.out, "%s %s  %s\n", box, t.ID, t.Text)
	}
	fmt.Fprintln(d.out, v.ItemsLeft)
}

func cmdAdd(ctx context.Context, d *deps, args []string) error {
	text := strings.Join(args, " ")
	if strings.TrimSpace(text) == "" {
		return errors.New("usage: todo add TEXT...")
	}
	return withApp(ctx, d, func(app *frontend.App) error { return app.Add(ctx, text) })
}

func cmdToggle(ctx context.Context, d *deps, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo toggle ID")
	}
	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if !hasTodo(app.View(), args[0]) {
		return errors.New("Todo not found")
	}
	if err := app.Toggle(ctx, args[0]); err != nil {
		return err
	}
	printTodos(d, app.View())
	return nil
}

func hasTodo(v frontend.View, id string) bool {
	for _, t := range v.Visible {
		if t.ID == id {
			return true
		}
	}
	return false
}

func cmdRemove(ctx context.Context, d *deps, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo rm ID")
	}
	return withApp(ctx, d, func(app *frontend.App) error { return app.Delete(ctx, args[0]) })
}

func cmdClear(ctx context.Context, d *deps, _ []string) error {
	return withApp(ctx, d, func(app *frontend.App) error { return app.ClearCompleted(ctx) })
}

// withApp runs op against a signed-in app and prints the resulting list.
func withApp(ctx context.Context, d *deps, op func(*frontend.App) error) error {
	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()
	if err := op(app); err != nil {
		return err
	}
	printTodos(d, app.View())
	return nil
}

func cmdUsername(ctx context.Context, d *deps, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: todo username NAME")
	}
	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	notice, err := app.UpdateUsername(ctx, args[0])
	if err != nil {
		return err
	}
	if notice != "" {
		fmt.Fprintln(d.out, notice)
	}
	fmt.Fprintln(d.out, app.View().Header)
	return nil
}

func cmdPasswd(ctx context.Context, d *deps, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	newPass := fs.String("new", "", "new password")
	confirm := fs.String("confirm", "", "new password again")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	notice, err := app.ChangePassword(ctx, prompt("New password", *newPass), prompt("Confirm password", *confirm))
	if err != nil {
		return err
	}
	fmt.Fprintln(d.out, notice)
	return nil
}

func cmdUI(ctx context.Context, d *deps, _ []string) error {
	app, err := d.signedInApp(ctx)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := tui.Run(ctx, app); err != nil {
		if errors.Is(err, frontend.ErrSignedOut) {
			fmt.Fprintln(d.out, "Signed out. Run `todo login` to sign in again.")
			return nil
		}
		return err
	}
	return nil
}
