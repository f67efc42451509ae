// Package crypto wraps the external encrypt/decrypt service. The cipher
// itself (AES-256-GCM) lives server-side; this client only knows the
// request/response contract plus a local legacy fallback for content
// produced by the old purely-local cipher.
package crypto

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dkotlyar/snipstash/internal/common"
)

type request struct {
	Action   string `json:"action"`
	Content  string `json:"content"`
	Password string `json:"password"`
}

type response struct {
	Success   bool   `json:"success"`
	Encrypted string `json:"encrypted,omitempty"`
	Decrypted string `json:"decrypted,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Gateway calls the crypto service over HTTP.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
}

func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Encrypt asks the service to encrypt plaintext under the passphrase.
func (g *Gateway) Encrypt(ctx context.Context, plaintext, passphrase string) (string, error) {
	resp, err := g.call(ctx, request{Action: "encrypt", Content: plaintext, Password: passphrase})
	if err != nil {
		return "", err
	}
	if !resp.Success || resp.Encrypted == "" {
		return "", fmt.Errorf("%w: %s", common.ErrCrypto, resp.Error)
	}
	return resp.Encrypted, nil
}

// Decrypt asks the service to decrypt ciphertext. If the remote call
// fails or comes back negative, a local legacy decryption is attempted
// so content encrypted by the old client remains readable. Empty input,
// remote failure, and legacy failure all collapse to ErrCrypto; callers
// treat them identically (abort, let the user retry).
func (g *Gateway) Decrypt(ctx context.Context, ciphertext, passphrase string) (string, error) {
	if strings.TrimSpace(ciphertext) == "" {
		return "", fmt.Errorf("%w: content is empty", common.ErrCrypto)
	}

	resp, err := g.call(ctx, request{Action: "decrypt", Content: ciphertext, Password: passphrase})
	if err == nil && resp.Success {
		return resp.Decrypted, nil
	}

	if plain, ok := legacyDecrypt(ciphertext, passphrase); ok {
		return plain, nil
	}
	return "", fmt.Errorf("%w: decryption produced no result", common.ErrCrypto)
}

func (g *Gateway) call(ctx context.Context, r request) (*response, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/crypto", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrNetwork, err)
	}
	defer httpResp.Body.Close()

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decoding crypto response: %w", err)
	}
	if httpResp.StatusCode >= 400 && resp.Error == "" {
		return nil, fmt.Errorf("%w: crypto service status %d", common.ErrServer, httpResp.StatusCode)
	}
	return &resp, nil
}

// legacyDecrypt reverses the old local cipher: base64-decode, XOR with
// the passphrase repeated over the buffer, then URL-percent-decode.
func legacyDecrypt(ciphertext, passphrase string) (string, bool) {
	if passphrase == "" {
		return "", false
	}

	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", false
	}

	key := []byte(passphrase)
	out := make([]byte, len(raw))
	for i, b := range raw {
		out[i] = b ^ key[i%len(key)]
	}

	plain, err := url.PathUnescape(string(out))
	if err != nil {
		return "", false
	}
	return plain, true
}
