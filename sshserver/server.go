package sshserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	gliderssh "github.com/gliderlabs/ssh"
	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"pkt.systems/pslog"
	"pkt.systems/termfolio/internal/audio"
	"pkt.systems/termfolio/internal/clock"
	"pkt.systems/termfolio/internal/command"
	"pkt.systems/termfolio/internal/effect"
	"pkt.systems/termfolio/internal/i18n"
	"pkt.systems/termfolio/internal/logx"
	"pkt.systems/termfolio/internal/persist"
	"pkt.systems/termfolio/internal/shell"
	"pkt.systems/termfolio/internal/version"
	"pkt.systems/termfolio/schema"
)

// Server exposes the portfolio shell over SSH. Anyone may connect: a public key only
// identifies the visitor so their language and theme persist between visits.
type Server struct {
	Addr         string
	HostKeyPath  string
	Listener     net.Listener
	Resolver     *command.Resolver
	Catalog      *i18n.Catalog
	Store        *persist.Store
	Profiles     effect.Profiles
	Prompt       string
	Title        string
	BellInterval time.Duration
	logger       pslog.Logger
}

type authContextKey string

const ownerKey authContextKey = "termfolio-owner"

// ListenAndServe starts the SSH server and shuts down on context cancellation.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.logger == nil {
		s.logger = pslog.Ctx(ctx)
	}
	if s.Resolver == nil {
		return errors.New("command resolver is required for SSH")
	}
	if s.Catalog == nil {
		s.Catalog = i18n.MustDefault()
	}

	signer, err := EnsureHostKey(s.HostKeyPath)
	if err != nil {
		return err
	}

	server := &gliderssh.Server{
		Addr:                       s.Addr,
		Version:                    "termfolio_" + version.Current(),
		Handler:                    s.handleSession,
		PublicKeyHandler:           s.handlePublicKey,
		KeyboardInteractiveHandler: s.handleKeyboardInteractive,
	}
	server.AddHostKey(signer)

	errCh := make(chan error, 1)
	go func() {
		if s.Listener != nil {
			errCh <- server.Serve(s.Listener)
			return
		}
		errCh <- server.ListenAndServe()
	}()

	s.logger.Info("ssh server listening", "addr", s.Addr, "host_key", ssh.FingerprintSHA256(signer.PublicKey()))
	select {
	case <-ctx.Done():
		_ = server.Close()
		return nil
	case err := <-errCh:
		if errors.Is(err, gliderssh.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// handlePublicKey accepts every key and remembers who it belongs to.
func (s *Server) handlePublicKey(ctx gliderssh.Context, key gliderssh.PublicKey) bool {
	owner := ownerForKey(key)
	ctx.SetValue(ownerKey, owner)
	s.logger.Debug("ssh pubkey accepted", "remote", remoteAddr(ctx), "fingerprint", ssh.FingerprintSHA256(key), "owner", owner)
	return true
}

// handleKeyboardInteractive lets visitors without keys in. It asks nothing.
func (s *Server) handleKeyboardInteractive(ctx gliderssh.Context, challenger ssh.KeyboardInteractiveChallenge) bool {
	if _, err := challenger(ctx.User(), "", nil, nil); err != nil {
		s.logger.Debug("ssh guest rejected", "remote", remoteAddr(ctx), "err", err)
		return false
	}
	s.logger.Debug("ssh guest accepted", "remote", remoteAddr(ctx))
	return true
}

func ownerForKey(key ssh.PublicKey) schema.OwnerID {
	sum := sha256.Sum256(key.Marshal())
	return schema.OwnerID("key-" + hex.EncodeToString(sum[:])[:16])
}

func ownerFromContext(ctx gliderssh.Context) (schema.OwnerID, bool) {
	owner, ok := ctx.Value(ownerKey).(schema.OwnerID)
	return owner, ok && owner != ""
}

func remoteAddr(ctx gliderssh.Context) string {
	if ctx == nil || ctx.RemoteAddr() == nil {
		return ""
	}
	return ctx.RemoteAddr().String()
}

// envValue returns the last value of key in a KEY=value list.
func envValue(environ []string, key string) string {
	value := ""
	for _, kv := range environ {
		if name, v, ok := strings.Cut(kv, "="); ok && name == key {
			value = v
		}
	}
	return value
}

// LocaleLanguage picks the language from the LC_ALL, LC_MESSAGES and LANG entries of environ.
func LocaleLanguage(catalog *i18n.Catalog, environ []string) schema.Language {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if value := envValue(environ, key); value != "" && value != "C" && value != "POSIX" {
			return catalog.Match(value)
		}
	}
	return schema.DefaultLanguage
}

func (s *Server) kvFor(owner schema.OwnerID, persistent bool) persist.KV {
	if s.Store == nil || !persistent {
		return persist.NewMemory()
	}
	return s.Store.Bind(owner)
}

func (s *Server) handleSession(sess gliderssh.Session) {
	log := s.logger
	if log == nil {
		log = pslog.Ctx(sess.Context())
	}
	remote := sess.RemoteAddr().String()
	sessionID := schema.SessionID(uuid.NewString())
	owner, persistent := ownerFromContext(sess.Context())
	if !persistent {
		owner = schema.OwnerID("guest-" + string(sessionID))
	}
	log = log.With("remote", remote)
	if sshSession := sess.Context().SessionID(); sshSession != "" {
		log = log.With("ssh_session", sshSession)
	}
	ctx := logx.ContextWithOwnerSessionLogger(sess.Context(), log, owner, sessionID)
	log = logx.Ctx(ctx)

	pty, winCh, ok := sess.Pty()
	if !ok {
		log.Info("ssh session rejected", "reason", "pty required")
		_, _ = io.WriteString(sess, "termfolio needs an interactive terminal; try ssh -t\n")
		return
	}

	lang := LocaleLanguage(s.Catalog, sess.Environ())
	log.Info("ssh session opened", "term", pty.Term, "lang", lang, "persistent", persistent)

	term := NewTerminal(sess, s.Prompt, s.Title)
	term.SetSize(pty.Window.Width, pty.Window.Height)

	clk := clock.Real()
	var sink audio.Sink = audio.NullSink{}
	if s.BellInterval > 0 {
		sink = audio.NewBellSink(term.Writer(), clk, s.BellInterval)
	}
	engine := audio.NewEngine(clk, sink, log)
	defer engine.Close()

	widget := shell.New(shell.Config{
		Display:  term,
		Resolver: s.Resolver,
		Catalog:  s.Catalog,
		Audio:    engine,
		Profiles: s.Profiles,
		Store:    s.kvFor(owner, persistent),
		Clock:    clk,
		Language: lang,
		Context:  ctx,
		Logger:   log,
	})
	defer widget.Close()

	done := make(chan struct{})
	defer close(done)
	resize := make(chan Size, 1)
	go func() {
		for {
			select {
			case <-done:
				return
			case win, ok := <-winCh:
				if !ok {
					return
				}
				select {
				case resize <- Size{Width: win.Width, Height: win.Height}:
				case <-done:
					return
				}
			}
		}
	}()

	if err := term.Run(ctx, widget, sess, resize); err != nil {
		log.Warn("ssh session failed", "err", err)
	}
	_ = sess.Exit(0)
	log.Info("ssh session closed", "term", pty.Term)
}
