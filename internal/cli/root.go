package cli

import (
	"io"
	"log/slog"

	"dimconv/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.3.0"

// app общее состояние команд: viper и путь к файлу конфигурации.
type app struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd собирает дерево команд. Каждый вызов получает свой viper.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "dimconv",
		Short: "Reformat and convert product dimension strings with an LLM",
		Long: `dimconv serves a small web form that takes free-text furniture or product
dimensions (e.g. 100H x 50W x 25D) and asks a chat-completion model to rewrite
them to one of a few fixed output templates.

The conversion itself is done by the model; dimconv only builds the prompt,
forwards it with the configured credentials and shows the reply.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML config file (keys as in env, lower-case)")
	root.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().String("provider", "", "LLM provider: openai, http, gemini (env LLM_PROVIDER)")
	root.PersistentFlags().String("model", "", "model id (env LLM_MODEL)")
	_ = a.v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = a.v.BindPFlag("llm_provider", root.PersistentFlags().Lookup("provider"))
	_ = a.v.BindPFlag("llm_model", root.PersistentFlags().Lookup("model"))

	root.AddCommand(newServeCmd(a), newConvertCmd(a), newFormatsCmd(a))
	return root
}

// Execute запускает CLI с аргументами процесса.
func Execute() error {
	return NewRootCmd().Execute()
}

func (a *app) load() (config.Config, error) {
	return config.Load(a.v, a.cfgFile)
}

func newLogger(level string, w io.Writer) *slog.Logger {
	slogLevel := slog.LevelInfo
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel}))
}
