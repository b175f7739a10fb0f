package cmd

import (
	"context"
	"fmt"
	u "net/url"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/tanq16/stagedl/internal/config"
	stagehttp "github.com/tanq16/stagedl/internal/downloaders/http"
	"github.com/tanq16/stagedl/internal/downloaders/s3"
	"github.com/tanq16/stagedl/internal/utils"
)

var (
	configPath    string
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	headers       []string
	token         string
	stagingDir    string
	s3Profile     string
	s3Expiry      time.Duration
	debug         bool
)

// Resolved in PersistentPreRunE from the config file and explicit flags.
var (
	globalConfig     config.Config
	globalHTTPConfig utils.HTTPClientConfig
)

var StagedlVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "stagedl",
	Short:   "stagedl stages remote files into a local temp directory",
	Version: StagedlVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.InitLogger(debug)
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		globalConfig = cfg
		globalHTTPConfig = httpConfigFor(cfg)
		log.Debug().Str("op", "cmd/root").Msgf("staging directory %s", stagingDirFor(cfg))
		return nil
	},
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $XDG_CONFIG_HOME/stagedl/config.yaml)")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.PersistentFlags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.PersistentFlags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser agent)")
	rootCmd.PersistentFlags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.PersistentFlags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.PersistentFlags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'X-Api-Key: abc'); can be specified multiple times")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token sent with every request")
	rootCmd.PersistentFlags().StringVar(&stagingDir, "staging-dir", "", "Staging directory (default <tmp>/"+utils.StagingDirName+")")
	rootCmd.PersistentFlags().StringVar(&s3Profile, "s3-profile", "", "AWS shared config profile for s3:// sources")
	rootCmd.PersistentFlags().DurationVar(&s3Expiry, "s3-presign-expiry", s3.DefaultExpiry, "Lifetime of presigned s3:// URLs (max 168h)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newGetCmd())
	rootCmd.AddCommand(newProbeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newCleanCmd())
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load(config.DefaultPath())
	}
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("timeout") {
		cfg.Timeout = timeout
	}
	if flags.Changed("keep-alive-timeout") {
		cfg.KeepAliveTimeout = kaTimeout
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = userAgent
	}
	if cfg.UserAgent == "randomize" {
		cfg.UserAgent = utils.GetRandomUserAgent()
	}
	if flags.Changed("proxy") {
		cfg.Proxy = proxyURL
	}
	if flags.Changed("token") {
		cfg.Token = token
	}
	if flags.Changed("staging-dir") {
		cfg.StagingDir = stagingDir
	}
	if flags.Changed("s3-profile") {
		cfg.S3Profile = s3Profile
	}
	if flags.Changed("s3-presign-expiry") {
		cfg.S3PresignExpiry = s3Expiry
	}
	for k, v := range utils.ParseHeaderArgs(headers) {
		cfg.Headers[k] = v
	}
	return cfg, cfg.Validate()
}

func httpConfigFor(cfg config.Config) utils.HTTPClientConfig {
	hc := cfg.HTTPClientConfig()
	hc.ProxyUsername = proxyUsername
	hc.ProxyPassword = proxyPassword
	// Check if proxy URL contains auth
	parsedProxy, err := u.Parse(hc.ProxyURL)
	if err == nil && parsedProxy.User != nil && hc.ProxyUsername == "" {
		hc.ProxyUsername = parsedProxy.User.Username()
		if password, set := parsedProxy.User.Password(); set {
			hc.ProxyPassword = password
		}
		parsedProxy.User = nil
		hc.ProxyURL = parsedProxy.String()
	}
	return hc
}

func stagingDirFor(cfg config.Config) string {
	if cfg.StagingDir != "" {
		return cfg.StagingDir
	}
	return stagehttp.DefaultStagingDir()
}

func newEngine(opts stagehttp.Options) (*stagehttp.Engine, error) {
	return stagehttp.New(utils.NewStageHTTPClient(globalHTTPConfig), opts)
}

// linkResolver turns user supplied links into download targets. All s3://
// links of one command share a single presigner, loaded on first use.
type linkResolver struct {
	stagingDir string
	profile    string
	expiry     time.Duration
	load       func(ctx context.Context, profile string, expiry time.Duration) (*s3.Presigner, error)

	once      sync.Once
	presigner *s3.Presigner
	loadErr   error
}

func newLinkResolver(cfg config.Config) *linkResolver {
	return &linkResolver{
		stagingDir: cfg.StagingDir,
		profile:    cfg.S3Profile,
		expiry:     cfg.S3PresignExpiry,
		load:       s3.NewPresigner,
	}
}

func validateLink(link string) error {
	if s3.IsS3URL(link) {
		_, _, err := s3.ParseS3URL(link)
		return err
	}
	parsed, err := u.Parse(link)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("unsupported link %q: expected http(s):// or s3://", link)
	}
	return nil
}

// Target derives the staging path for link. s3 targets keep their s3:// URL
// until Sign is called, and are named after the object key.
func (r *linkResolver) Target(link string) (stagehttp.Target, error) {
	if err := validateLink(link); err != nil {
		return stagehttp.Target{}, err
	}
	return stagehttp.ResolveTarget(link, r.stagingDir)
}

// Sign swaps an s3 target's URL for a presigned GET and its probe for a
// presigned HEAD. Other targets are returned unchanged.
func (r *linkResolver) Sign(ctx context.Context, target stagehttp.Target) (stagehttp.Target, error) {
	if !s3.IsS3URL(target.URL) {
		return target, nil
	}
	obj, err := r.presign(ctx, target.URL)
	if err != nil {
		return stagehttp.Target{}, err
	}
	target.URL = obj.GetURL
	target.ProbeURL = obj.HeadURL
	return target, nil
}

// ProbeURL returns where a length query for link goes, without creating the
// staging directory.
func (r *linkResolver) ProbeURL(ctx context.Context, link string) (string, error) {
	if err := validateLink(link); err != nil {
		return "", err
	}
	if !s3.IsS3URL(link) {
		return link, nil
	}
	obj, err := r.presign(ctx, link)
	if err != nil {
		return "", err
	}
	return obj.HeadURL, nil
}

func (r *linkResolver) presign(ctx context.Context, link string) (s3.PresignedObject, error) {
	r.once.Do(func() {
		r.presigner, r.loadErr = r.load(ctx, r.profile, r.expiry)
	})
	if r.loadErr != nil {
		return s3.PresignedObject{}, fmt.Errorf("load AWS config: %w", r.loadErr)
	}
	return r.presigner.Presign(ctx, link)
}
