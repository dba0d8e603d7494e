package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/naoray/filastart/internal/params"
)

// CollectParams asks for every installation parameter, using in as the
// starting values. The returned input is complete and ready for
// params.Resolve.
func CollectParams(in params.Input) (params.Input, error) {
	if in.Kit == "" {
		in.Kit = string(params.DefaultKit)
	}
	if in.Database == "" {
		in.Database = string(params.DefaultDatabase)
	}
	customAdmin := in.AdminName != "" || in.AdminEmail != "" || in.AdminPassword != ""

	needsConnection := func() bool {
		d, err := params.ParseDatabase(in.Database)
		return err == nil && d.NeedsConnection()
	}
	if in.DBHost == "" {
		in.DBHost = "127.0.0.1"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Placeholder(params.DefaultProjectName).
				Value(&in.ProjectName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					return params.ValidateProjectName(s)
				}),
			huh.NewSelect[string]().
				Title("Starter kit").
				Options(kitOptions()...).
				Value(&in.Kit),
			huh.NewSelect[string]().
				Title("Database").
				Options(databaseOptions()...).
				Value(&in.Database),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Database host").
				Value(&in.DBHost).
				Validate(required("host")),
			huh.NewInput().
				Title("Database port").
				PlaceholderFunc(func() string { return defaultPort(in.Database) }, &in.Database).
				Value(&in.DBPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Database name").
				Value(&in.DBName).
				Validate(required("database name")),
			huh.NewInput().
				Title("Database user").
				Value(&in.DBUser).
				Validate(required("user")),
			huh.NewInput().
				Title("Database password").
				EchoMode(huh.EchoModePassword).
				Value(&in.DBPassword).
				Validate(required("password")),
		).WithHideFunc(func() bool { return !needsConnection() }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Create a custom admin user?").
				Description(fmt.Sprintf("Otherwise %s / %s is used", params.DefaultAdmin.Email, params.DefaultAdmin.Password)).
				Value(&customAdmin),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Admin name").
				Value(&in.AdminName).
				Validate(required("name")),
			huh.NewInput().
				Title("Admin email").
				Value(&in.AdminEmail).
				Validate(params.ValidateEmail),
			huh.NewInput().
				Title("Admin password").
				EchoMode(huh.EchoModePassword).
				Value(&in.AdminPassword).
				Validate(required("password")),
		).WithHideFunc(func() bool { return !customAdmin }),
	).WithTheme(huh.ThemeCatppuccin())

	if err := form.Run(); err != nil {
		return params.Input{}, NormalizeAbort(err)
	}

	if strings.TrimSpace(in.ProjectName) == "" {
		in.ProjectName = params.DefaultProjectName
	}
	if needsConnection() && strings.TrimSpace(in.DBPort) == "" {
		in.DBPort = defaultPort(in.Database)
	}
	if !needsConnection() {
		in.DBHost, in.DBPort, in.DBName, in.DBUser, in.DBPassword = "", "", "", "", ""
	}
	if !customAdmin {
		in.AdminName, in.AdminEmail, in.AdminPassword = "", "", ""
	}
	return in, nil
}

func kitOptions() []huh.Option[string] {
	labels := map[params.Kit]string{
		params.KitLivewire: "Livewire",
		params.KitReact:    "React",
		params.KitVue:      "Vue",
	}
	options := make([]huh.Option[string], len(params.Kits))
	for i, k := range params.Kits {
		options[i] = huh.NewOption(labels[k], string(k))
	}
	return options
}

func databaseOptions() []huh.Option[string] {
	options := make([]huh.Option[string], len(params.Databases))
	for i, d := range params.Databases {
		label := d.Label()
		if d == params.Supabase {
			label += " (local, supabase start)"
		}
		options[i] = huh.NewOption(label, string(d))
	}
	return options
}

func defaultPort(database string) string {
	if database == string(params.MySQL) {
		return "3306"
	}
	return "5432"
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s cannot be empty", field)
		}
		return nil
	}
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
