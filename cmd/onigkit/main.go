package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/onigkit/onigkit/config"
	"github.com/onigkit/onigkit/generator"
	"github.com/onigkit/onigkit/optimizer"
	"github.com/onigkit/onigkit/parser"
)

const (
	maxInputLength = 1024 * 1024 // 1MB
	maxParamLength = 1024        // 1KB
)

type appConfig struct {
	Pattern  string   `kong:"arg,optional,help='Pattern to process; read from stdin when omitted'"`
	Flags    string   `kong:"short='f',help='Oniguruma flag string, e.g. imx'"`
	Parse    bool     `kong:"help='Print the AST as JSON instead of optimizing'"`
	Config   string   `kong:"short='c',help='YAML configuration file with optimizer profiles and global settings'"`
	Profiles []string `kong:"short='m',help='Individual YAML profile files to load'"`
	Profile  string   `kong:"short='r',help='Profile ID to apply'"`
	Server   bool     `kong:"short='s',help='Run as an HTTP service'"`
	Port     *int     `kong:"short='p',help='Port to listen on'"`
	LogLevel *string  `kong:"short='l',help='Log level (debug, info, warn, error)'"`
}

func parseConfig() *appConfig {
	cfg := &appConfig{}

	desc := config.Description
	desc += " [" + config.Version + "]"

	ctx := kong.Parse(cfg,
		kong.Description(desc),
		kong.UsageOnError(),
	)
	if ctx.Error != nil {
		fmt.Fprintln(os.Stderr, ctx.Error)
		os.Exit(1)
	}
	return cfg
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Error().Err(err).Str("level", level).Msg("Invalid log level, defaulting to info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func main() {
	cfg := parseConfig()

	yamlConfig, err := config.LoadFromSources(cfg.Config, cfg.Profiles)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	finalPort := yamlConfig.Port
	finalLogLevel := yamlConfig.LogLevel
	if cfg.Port != nil {
		finalPort = *cfg.Port
	}
	if cfg.LogLevel != nil {
		finalLogLevel = *cfg.LogLevel
	}
	setupLogger(finalLogLevel)

	optOpts, err := resolveOptions(cfg, yamlConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to resolve optimizer options")
	}

	if !cfg.Server {
		runOnce(cfg, optOpts)
		return
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             maxInputLength,
	})
	setupRoutes(app, yamlConfig)

	go func() {
		log.Info().Int("port", finalPort).Msg("Starting server")

		for _, p := range yamlConfig.Profiles {
			log.Info().Str("id", p.ID).Str("desc", p.Description).Msg("Loaded profile")
		}

		if err := app.Listen(fmt.Sprintf(":%d", finalPort)); err != nil {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("Error during shutdown")
	}
}

// resolveOptions merges profile settings with command-line flags; the
// command line wins.
func resolveOptions(cfg *appConfig, yamlConfig *config.Config) (*optimizer.Options, error) {
	opts := &optimizer.Options{}
	if cfg.Profile != "" {
		profile, ok := yamlConfig.Profile(cfg.Profile)
		if !ok {
			return nil, fmt.Errorf("profile '%s' not found", cfg.Profile)
		}
		resolved, err := profile.OptimizerOptions()
		if err != nil {
			return nil, err
		}
		opts = resolved
	}
	if cfg.Flags != "" {
		opts.Flags = cfg.Flags
	}
	return opts, nil
}

func runOnce(cfg *appConfig, opts *optimizer.Options) {
	pattern := cfg.Pattern
	if pattern == "" {
		data, err := io.ReadAll(io.LimitReader(os.Stdin, maxInputLength))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read pattern from stdin")
		}
		pattern = strings.TrimSuffix(string(data), "\n")
	}

	if cfg.Parse {
		re, err := parser.Parse(pattern, &parser.Options{Flags: opts.Flags, Rules: opts.Rules})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to parse pattern")
		}
		out, err := json.MarshalIndent(re, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to marshal AST")
		}
		fmt.Println(string(out))
		return
	}

	result, err := optimizer.Optimize(pattern, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to optimize pattern")
	}
	fmt.Println(result.Pattern)
}

type patternRequest struct {
	Pattern string `json:"pattern"`
	Flags   string `json:"flags,omitempty"`
	Profile string `json:"profile,omitempty"`
}

func setupRoutes(app *fiber.App, yamlConfig *config.Config) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Post("/parse", handleParse())
	app.Post("/optimize", handleOptimize(yamlConfig))
}

func readRequest(c *fiber.Ctx) (*patternRequest, error) {
	var req patternRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, fmt.Errorf("invalid JSON in request body")
	}
	if req.Pattern == "" {
		return nil, fmt.Errorf("missing 'pattern' field")
	}
	if len(req.Flags) > maxParamLength || len(req.Profile) > maxParamLength {
		return nil, fmt.Errorf("parameter too long (max %d bytes)", maxParamLength)
	}
	return &req, nil
}

func handleParse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := readRequest(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		re, err := parser.Parse(req.Pattern, &parser.Options{Flags: req.Flags})
		if err != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"ast": re})
	}
}

func handleOptimize(yamlConfig *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := readRequest(c)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		opts := &optimizer.Options{Flags: req.Flags}
		if req.Profile != "" {
			profile, ok := yamlConfig.Profile(req.Profile)
			if !ok {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("profile '%s' not found", req.Profile),
				})
			}
			resolved, err := profile.OptimizerOptions()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
					"error": err.Error(),
				})
			}
			if req.Flags != "" {
				resolved.Flags = req.Flags
			}
			opts = resolved
		}

		result, err := optimizer.Optimize(req.Pattern, opts)
		if err != nil {
			log.Error().Err(err).
				Str("pattern", req.Pattern).
				Msg("Failed to optimize pattern")

			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"pattern": result.Pattern,
			"flags":   generator.FlagsString(result.AST.Flags),
		})
	}
}
