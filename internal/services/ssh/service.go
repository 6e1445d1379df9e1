// Package ssh shuts down mapped hosts over SSH.
package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/fgeck/lanwake/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/ssh"
)

// ErrShutdown is returned by ShutdownHosts when at least one host failed.
var ErrShutdown = errors.New("remote shutdown failed")

// Service defines the interface for SSH operations.
type Service interface {
	Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
	TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error)
	ShutdownHosts(ctx context.Context, cfg models.SSHShutdownConfig, hosts []string) ([]models.SSHResult, error)
}

// SSHClient wraps ssh.Client for mocking.
type SSHClient interface {
	NewSession() (SSHSession, error)
	Close() error
}

// SSHSession wraps ssh.Session for mocking.
type SSHSession interface {
	CombinedOutput(cmd string) ([]byte, error)
	Close() error
}

// ClientFactory creates SSH clients.
type ClientFactory interface {
	NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error)
}

// DefaultClientFactory is the default SSH client factory.
type DefaultClientFactory struct{}

// NewClient creates a new SSH client.
func (f *DefaultClientFactory) NewClient(network, addr string, config *ssh.ClientConfig) (SSHClient, error) {
	client, err := ssh.Dial(network, addr, config)
	if err != nil {
		return nil, err
	}
	return &defaultSSHClient{client: client}, nil
}

type defaultSSHClient struct {
	client *ssh.Client
}

func (c *defaultSSHClient) NewSession() (SSHSession, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (c *defaultSSHClient) Close() error {
	return c.client.Close()
}

// Impl implements the SSH Service interface.
type Impl struct {
	clientFactory ClientFactory
	logger        zerolog.Logger
}

// New creates a new SSH service.
func New(logger zerolog.Logger) *Impl {
	return NewWithClientFactory(logger, &DefaultClientFactory{})
}

// NewWithClientFactory creates a new SSH service with a custom client factory (for testing).
func NewWithClientFactory(logger zerolog.Logger, factory ClientFactory) *Impl {
	return &Impl{
		clientFactory: factory,
		logger:        logger,
	}
}

// ShutdownCommand returns the command that powers off a host of cfg.OS
// after cfg.ShutdownDelay minutes.
func ShutdownCommand(cfg models.SSHShutdownConfig) string {
	if cfg.OS == "windows" {
		delaySeconds := cfg.ShutdownDelay * 60
		if delaySeconds == 0 {
			delaySeconds = 60
		}
		return fmt.Sprintf("shutdown /s /t %d", delaySeconds)
	}
	if cfg.ShutdownDelay == 0 {
		return "sudo shutdown -h now"
	}
	return fmt.Sprintf("sudo shutdown -h +%d", cfg.ShutdownDelay)
}

func (s *Impl) buildConfig(cfg models.SSHShutdownConfig) (*ssh.ClientConfig, error) {
	key, err := loadKey(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &ssh.ClientConfig{
		User: cfg.Username,
		Auth: []ssh.AuthMethod{
			ssh.PublicKeys(signer),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // LAN hosts from the mapping file
		Timeout:         30 * time.Second,
	}, nil
}

func loadKey(cfg models.SSHShutdownConfig) ([]byte, error) {
	if len(cfg.PrivateKey) > 0 {
		return cfg.PrivateKey, nil
	}
	if cfg.KeyPath == "" {
		return nil, fmt.Errorf("no private key provided")
	}
	key, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key from %s: %w", cfg.KeyPath, err)
	}
	return key, nil
}

// connect dials cfg.Host, giving up when ctx is done.
func (s *Impl) connect(ctx context.Context, cfg models.SSHShutdownConfig) (SSHClient, error) {
	sshConfig, err := s.buildConfig(cfg)
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	type dialResult struct {
		client SSHClient
		err    error
	}
	clientChan := make(chan dialResult, 1)

	go func() {
		client, err := s.clientFactory.NewClient("tcp", addr, sshConfig)
		clientChan <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-clientChan:
		if res.err != nil {
			return nil, fmt.Errorf("failed to connect to %s: %w", addr, res.err)
		}
		return res.client, nil
	}
}

// run executes cmd on cfg.Host. commandRun reports whether the command
// was started.
func (s *Impl) run(ctx context.Context, cfg models.SSHShutdownConfig, cmd string) (output string, commandRun bool, err error) {
	client, err := s.connect(ctx, cfg)
	if err != nil {
		return "", false, err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", false, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = session.Close() }()

	s.logger.Debug().Str("host", cfg.Host).Str("command", cmd).Msg("executing remote command")

	out, err := session.CombinedOutput(cmd)
	return string(out), true, err
}

// Shutdown initiates a system shutdown via SSH.
func (s *Impl) Shutdown(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	result := &models.SSHResult{Host: cfg.Host}

	s.logger.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("user", cfg.Username).
		Int("delay", cfg.ShutdownDelay).
		Msg("initiating remote shutdown")

	output, commandRun, err := s.run(ctx, cfg, ShutdownCommand(cfg))
	result.Output = output
	result.CommandRun = commandRun

	if err != nil {
		switch {
		case !commandRun:
			result.Error = err
			return result, nil
		case ctx.Err() != nil:
			result.Error = ctx.Err()
		default:
			// The host may drop the connection while going down.
			s.logger.Warn().Err(err).Str("host", cfg.Host).Str("output", output).Msg("shutdown command returned error (may be expected)")
		}
	}

	s.logger.Info().
		Str("host", cfg.Host).
		Bool("command_run", result.CommandRun).
		Str("output", result.Output).
		Msg("shutdown command completed")

	return result, nil
}

// TestConnection verifies SSH connectivity without executing shutdown.
func (s *Impl) TestConnection(ctx context.Context, cfg models.SSHShutdownConfig) (*models.SSHResult, error) {
	result := &models.SSHResult{Host: cfg.Host}

	s.logger.Debug().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Msg("testing SSH connection")

	output, commandRun, err := s.run(ctx, cfg, "echo OK")
	result.Output = output
	result.CommandRun = commandRun

	if err != nil {
		if commandRun {
			err = fmt.Errorf("test command failed: %w", err)
		}
		result.Error = err
	}

	return result, nil
}

// ShutdownHosts shuts down every host in order using cfg as the template.
// Failures are collected and do not stop the remaining hosts.
func (s *Impl) ShutdownHosts(ctx context.Context, cfg models.SSHShutdownConfig, hosts []string) ([]models.SSHResult, error) {
	key, err := loadKey(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShutdown, err)
	}
	cfg.PrivateKey = key

	results := make([]models.SSHResult, 0, len(hosts))
	var errs []error

	for _, host := range hosts {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		hostCfg := cfg
		hostCfg.Host = host

		result, err := s.Shutdown(ctx, hostCfg)
		if err != nil {
			result = &models.SSHResult{Host: host, Error: err}
		}
		results = append(results, *result)
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", host, result.Error))
		}
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("%w: %w", ErrShutdown, errors.Join(errs...))
	}
	return results, nil
}
