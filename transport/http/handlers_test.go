package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caracol-studio/formgate/adapters/altcha"
	"github.com/caracol-studio/formgate/adapters/content"
	"github.com/caracol-studio/formgate/adapters/replay"
	"github.com/caracol-studio/formgate/core"
	"github.com/caracol-studio/formgate/service"
)

const testKey = "e2e-hmac-key"

func newTestRouter(t *testing.T, hmacKey string) (*gin.Engine, *content.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider := altcha.New(hmacKey)
	store := content.NewMemory()
	lg := slog.New(slog.NewTextHandler(io.Discard, nil))

	pipeline := service.NewPipeline(
		provider,
		replay.NewMemory(context.Background(), core.ChallengeExpiry),
		store,
		nil,
		lg,
	)

	return SetupRouter(pipeline, provider, lg), store
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Message
}

// solveChallenge fetches a challenge and brute-forces the secret
// number, exactly as the widget does in the browser.
func solveChallenge(t *testing.T, router *gin.Engine) string {
	t.Helper()

	w := doJSON(router, http.MethodGet, "/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var ch core.Challenge
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ch))

	for n := int64(0); n <= ch.MaxNumber; n++ {
		sum := sha256.Sum256([]byte(ch.Salt + strconv.FormatInt(n, 10)))
		if hex.EncodeToString(sum[:]) == ch.Challenge {
			raw, err := json.Marshal(core.Solution{
				Algorithm: ch.Algorithm,
				Challenge: ch.Challenge,
				Number:    n,
				Salt:      ch.Salt,
				Signature: ch.Signature,
			})
			require.NoError(t, err)
			return base64.StdEncoding.EncodeToString(raw)
		}
	}

	t.Fatal("challenge has no solution under maxnumber")
	return ""
}

func signHex(key, digest string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(digest))
	return hex.EncodeToString(mac.Sum(nil))
}

func messageBody(extra map[string]any) map[string]any {
	body := map[string]any{
		"data": map[string]any{"nombre": "A", "email": "a@b.com", "consulta": "hi"},
	}
	for k, v := range extra {
		body[k] = v
	}
	return body
}

func TestGetChallenge(t *testing.T) {
	router, _ := newTestRouter(t, testKey)

	w := doJSON(router, http.MethodGet, "/challenge", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.Equal(t, "SHA-256", fields["algorithm"])
	assert.NotEmpty(t, fields["challenge"])
	assert.NotEmpty(t, fields["salt"])
	assert.NotEmpty(t, fields["signature"])
}

func TestGetChallengeUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doJSON(router, http.MethodGet, "/challenge", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateMessageMissingToken(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	w := doJSON(router, http.MethodPost, "/messages", messageBody(nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, strings.ToLower(errorMessage(t, w)), "token is missing")
	assert.Empty(t, store.Messages())
}

func TestCreateMessageHappyPath(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	token := solveChallenge(t, router)
	w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": token}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data core.CreatedMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.ID)
	assert.Equal(t, "A", resp.Data.Attributes["nombre"])

	require.Len(t, store.Messages(), 1)
	assert.NotContains(t, store.Messages()[0].Attributes, "altcha")
	assert.NotContains(t, store.Messages()[0].Attributes, "website")
}

func TestCreateMessageReplay(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	token := solveChallenge(t, router)

	w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": token}))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": token}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Challenge already used", errorMessage(t, w))

	assert.Len(t, store.Messages(), 1)
}

func TestCreateMessageConcurrentReplay(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	token := solveChallenge(t, router)

	const n = 8
	var created atomic.Int64
	var rejected atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": token}))
			switch w.Code {
			case http.StatusCreated:
				created.Add(1)
			case http.StatusBadRequest:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), created.Load(), "exactly one request may be admitted")
	assert.Equal(t, int64(n-1), rejected.Load())
	assert.Len(t, store.Messages(), 1)
}

func TestCreateMessageHoneypot(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	token := solveChallenge(t, router)

	for _, body := range []map[string]any{
		messageBody(map[string]any{"altcha": token, "website": "http://spam.example.com"}),
		{"data": map[string]any{"nombre": "A", "website": "filled"}, "altcha": token},
	} {
		w := doJSON(router, http.MethodPost, "/messages", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		// Indistinguishable from an ordinary verification failure.
		assert.Equal(t, "Verification failed", errorMessage(t, w))
	}

	assert.Empty(t, store.Messages())
}

func TestCreateMessageInvalidToken(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	// Well-formed but signed by nobody.
	raw, err := json.Marshal(core.Solution{
		Algorithm: "SHA-256",
		Challenge: strings.Repeat("ab", 32),
		Number:    42,
		Salt:      "cafebabe?expires=9999999999",
		Signature: strings.Repeat("cd", 32),
	})
	require.NoError(t, err)
	forged := base64.StdEncoding.EncodeToString(raw)

	w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": forged}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Verification failed", errorMessage(t, w))
	assert.Empty(t, store.Messages())
}

func TestCreateMessageExpiredToken(t *testing.T) {
	router, store := newTestRouter(t, testKey)

	// A correctly signed solution whose embedded expiry has passed.
	salt := "cafebabe?expires=1000000000"
	number := int64(7)
	digest := sha256.Sum256([]byte(salt + strconv.FormatInt(number, 10)))
	challenge := hex.EncodeToString(digest[:])

	raw, err := json.Marshal(core.Solution{
		Algorithm: "SHA-256",
		Challenge: challenge,
		Number:    number,
		Salt:      salt,
		Signature: signHex(testKey, challenge),
	})
	require.NoError(t, err)
	expired := base64.StdEncoding.EncodeToString(raw)

	w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": expired}))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.Messages())
}

func TestCreateMessageUnconfigured(t *testing.T) {
	router, _ := newTestRouter(t, "")

	w := doJSON(router, http.MethodPost, "/messages", messageBody(map[string]any{"altcha": "anything"}))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateMessageBadBody(t *testing.T) {
	router, _ := newTestRouter(t, testKey)

	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t, testKey)

	w := doJSON(router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
