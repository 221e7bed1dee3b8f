package tokencache

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Argon2id parameters for the file key.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024
	argonThreads = 1
	argonKeyLen  = chacha20poly1305.KeySize
	argonSaltLen = 16
)

// File header: magic, version byte, argon2 salt.
const (
	fileMagic        = "T2MQ"
	fileVersion byte = 1
	headerLen        = len(fileMagic) + 1 + argonSaltLen
)

// Logger is the logging interface used by the cache.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Options configures a Cache.
type Options struct {
	// Path is the cache file location.
	Path string

	// Secret is mixed into the key derivation.
	Secret string

	// Fallback is served when no token has been cached.
	Fallback string

	// Identity replaces the machine identity used for key derivation.
	Identity string

	Logger Logger
}

// Cache holds the current token and its encrypted file.
// All methods are safe for concurrent use.
type Cache struct {
	path     string
	password []byte
	fallback string
	logger   Logger

	mu    sync.RWMutex
	token string

	// writeMu serialises file writes.
	writeMu sync.Mutex
}

// New creates a cache. It does not read the file; call Load.
func New(opts Options) (*Cache, error) {
	if opts.Path == "" {
		return nil, ErrNoPath
	}

	identity := opts.Identity
	if identity == "" {
		identity = machineIdentity()
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	return &Cache{
		path:     opts.Path,
		password: []byte(identity + "\x00" + opts.Secret),
		fallback: opts.Fallback,
		logger:   logger,
	}, nil
}

// machineIdentity returns a value stable for the current user on this machine.
func machineIdentity() string {
	host, _ := os.Hostname()
	name := ""
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	return host + "/" + name
}

// Path returns the cache file location.
func (c *Cache) Path() string {
	return c.path
}

// Token returns the cached token, or the fallback when none is cached.
func (c *Cache) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token != "" {
		return c.token
	}
	return c.fallback
}

// Load reads the cache file. A missing file is not an error.
func (c *Cache) Load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		c.logger.Info("no cached token found", "path", c.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading token cache: %w", err)
	}

	token, err := c.open(data)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	c.logger.Info("loaded cached token", "path", c.path)
	return nil
}

// Update stores token and writes it to the cache file. An unchanged or
// empty token is ignored.
func (c *Cache) Update(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	c.mu.Lock()
	if c.token == token {
		c.mu.Unlock()
		return nil
	}
	c.token = token
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	data, err := c.seal(token)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		return fmt.Errorf("writing token cache: %w", err)
	}

	c.logger.Info("token cache updated", "path", c.path)
	return nil
}

// =============================================================================
// Encryption
// =============================================================================

func (c *Cache) seal(token string) ([]byte, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	aead, err := chacha20poly1305.NewX(c.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	header := make([]byte, 0, headerLen)
	header = append(header, fileMagic...)
	header = append(header, fileVersion)
	header = append(header, salt...)

	out := make([]byte, 0, headerLen+len(nonce)+len(token)+aead.Overhead())
	out = append(out, header...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, []byte(token), header), nil
}

func (c *Cache) open(data []byte) (string, error) {
	if len(data) < headerLen+chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: file too short", ErrCorrupt)
	}
	if !bytes.Equal(data[:len(fileMagic)], []byte(fileMagic)) {
		return "", fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := data[len(fileMagic)]; v != fileVersion {
		return "", fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}

	header := data[:headerLen]
	salt := header[len(fileMagic)+1:]
	nonce := data[headerLen : headerLen+chacha20poly1305.NonceSizeX]
	ciphertext := data[headerLen+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(c.deriveKey(salt))
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return string(plaintext), nil
}

func (c *Cache) deriveKey(salt []byte) []byte {
	return argon2.IDKey(c.password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// writeFileAtomic writes data to a temporary file and renames it over path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tokencache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
