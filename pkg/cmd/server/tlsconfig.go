package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/mpapenbr/lapviewer/log"
)

// certReloader serves the key pair from certFile/keyFile and picks up
// renewed files without restart
type certReloader struct {
	certFile string
	keyFile  string
	log      *log.Logger
	mu       sync.RWMutex
	cert     *tls.Certificate
}

func newCertReloader(certFile, keyFile string, logger *log.Logger) (*certReloader, error) {
	c := &certReloader{certFile: certFile, keyFile: keyFile, log: logger}
	if err := c.loadCert(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *certReloader) TLSConfig() *tls.Config {
	return &tls.Config{
		GetCertificate: func(chi *tls.ClientHelloInfo) (*tls.Certificate, error) {
			c.mu.RLock()
			defer c.mu.RUnlock()
			return c.cert, nil
		},
		MinVersion: tls.VersionTLS13,
	}
}

func (c *certReloader) loadCert() error {
	c.log.Info("Loading cert",
		log.String("key", c.keyFile),
		log.String("cert", c.certFile))
	cert, err := tls.LoadX509KeyPair(c.certFile, c.keyFile)
	if err != nil {
		return fmt.Errorf("load TLS key pair: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cert = &cert
	return nil
}

// Watch reloads the key pair on changes until ctx is done. A broken
// key pair keeps the previous one active.
func (c *certReloader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()
	// files are often replaced (renamed), so watch the directories
	files := map[string]bool{}
	for _, f := range []string{c.certFile, c.keyFile} {
		abs, err := filepath.Abs(f)
		if err != nil {
			return err
		}
		files[abs] = true
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", f, err)
		}
	}
	for {
		select {
		case <-ctx.Done():
			c.log.Info("context done, stopping cert reload")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, _ := filepath.Abs(event.Name)
			if !files[name] || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			c.log.Info("cert file changed, reloading cert", log.String("file", event.Name))
			if err := c.loadCert(); err != nil {
				c.log.Error("could not reload cert", log.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.log.Error("watcher error", log.ErrorField(err))
		}
	}
}
