package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/maynagashev/filekeeper/internal/api"
)

const (
	envPrefix        = "FILEKEEPER"
	defaultServerURL = "http://127.0.0.1:50051"
	defaultTimeout   = 30 * time.Second

	keyConfig    = "config"
	keyServerURL = "server-url"
	keyTimeout   = "timeout"
	keyVerbose   = "verbose"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94")) // Красный для ошибок
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))     // Серый
)

// clientFactory создает API клиент. Подменяется в тестах.
type clientFactory func(baseURL string, timeout time.Duration) api.Client

// app хранит состояние одного запуска CLI.
type app struct {
	v         *viper.Viper
	out       io.Writer
	errOut    io.Writer
	newClient clientFactory
	logger    *slog.Logger
}

// newRootCmd собирает корневую команду с подкомандами upload и download.
func newRootCmd(out, errOut io.Writer, newClient clientFactory) *cobra.Command {
	a := &app{
		v:         viper.New(),
		out:       out,
		errOut:    errOut,
		newClient: newClient,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	rootCmd := &cobra.Command{
		Use:   "filekeeper",
		Short: "CLI for the FileKeeper file server",
		Long: `FileKeeper stores named files on a server. The first user to upload a file
becomes its owner; only the owner can overwrite or download it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringP(keyConfig, "c", "", "config file (YAML)")
	flags.String(keyServerURL, defaultServerURL, "server URL (env: FILEKEEPER_SERVER_URL)")
	flags.Duration(keyTimeout, defaultTimeout, "request timeout (env: FILEKEEPER_TIMEOUT)")
	flags.BoolP(keyVerbose, "v", false, "debug logging to stderr")

	rootCmd.AddCommand(a.newUploadCmd(), a.newDownloadCmd())
	return rootCmd
}

// initConfig объединяет флаги, переменные окружения и файл конфигурации.
// Приоритет: флаг, переменная окружения, файл, значение по умолчанию.
func (a *app) initConfig(cmd *cobra.Command) error {
	a.v.SetDefault(keyServerURL, defaultServerURL)
	a.v.SetDefault(keyTimeout, defaultTimeout)

	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("ошибка привязки флагов: %w", err)
	}

	a.v.SetEnvPrefix(envPrefix)
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	a.v.AutomaticEnv()

	if cfgFile := a.v.GetString(keyConfig); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("ошибка чтения файла конфигурации '%s': %w", cfgFile, err)
		}
	}

	level := slog.LevelInfo
	if a.v.GetBool(keyVerbose) {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.logger.Debug("Конфигурация загружена",
		"server_url", a.v.GetString(keyServerURL),
		"timeout", a.v.GetDuration(keyTimeout),
		"config_file", a.v.ConfigFileUsed())
	return nil
}

func (a *app) client() api.Client {
	return a.newClient(a.v.GetString(keyServerURL), a.v.GetDuration(keyTimeout))
}

// formatError возвращает текст ошибки для вывода пользователю.
func formatError(err error) string {
	var serverErr *api.ServerError
	if errors.As(err, &serverErr) && serverErr.Code != "" {
		return errorStyle.Render("Error ("+serverErr.Code+"): "+serverErr.Message)
	}
	return errorStyle.Render("Error: " + err.Error())
}
