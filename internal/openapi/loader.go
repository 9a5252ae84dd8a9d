package openapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHCredential authenticates sftp:// schema sources.
type SSHCredential struct {
	Username   string
	PrivateKey []byte
}

// Load fetches and parses a schema document. Supported sources are http(s)
// URLs, local paths (optionally with a file:// scheme), and sftp:// URLs,
// which require an SSH credential.
func Load(
	ctx context.Context,
	source string,
	cred *SSHCredential,
	timeout time.Duration,
) (map[string]any, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing schema source %s", source)
	}

	var raw []byte
	switch u.Scheme {
	case "http", "https":
		raw, err = loadHTTP(ctx, source, timeout)
	case "sftp":
		raw, err = loadSFTP(u, cred, timeout)
	case "file", "":
		raw, err = os.ReadFile(strings.TrimPrefix(source, "file://"))
	default:
		return nil, errors.Errorf("unsupported schema source scheme %q", u.Scheme)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema from %s", source)
	}

	return Parse(raw, u.Path)
}

// Parse decodes raw schema bytes. A .json name selects the JSON decoder,
// everything else goes through YAML, which also accepts JSON documents.
func Parse(raw []byte, name string) (map[string]any, error) {
	doc := make(map[string]any)
	if path.Ext(name) == ".json" {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrap(err, "decoding schema json")
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding schema yaml")
	}
	return doc, nil
}

func loadHTTP(ctx context.Context, source string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, errors.Errorf("schema endpoint returned status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}

func loadSFTP(u *url.URL, cred *SSHCredential, timeout time.Duration) ([]byte, error) {
	if cred == nil {
		return nil, errors.New("sftp schema sources require an SSH credential")
	}
	signer, err := ssh.ParsePrivateKey(cred.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "parsing ssh private key")
	}

	username := cred.Username
	if u.User != nil && u.User.Username() != "" {
		username = u.User.Username()
	}
	cc := &ssh.ClientConfig{
		User:            username,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	hostname := u.Host
	if !strings.Contains(hostname, ":") {
		hostname += ":22"
	}
	client, err := ssh.Dial("tcp", hostname, cc)
	if err != nil {
		return nil, errors.Wrap(err, "dialing ssh")
	}
	defer client.Close()

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, errors.Wrap(err, "opening sftp session")
	}
	defer sftpClient.Close()

	f, err := sftpClient.Open(u.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening remote file %s", u.Path)
	}
	defer f.Close()
	return io.ReadAll(f)
}
