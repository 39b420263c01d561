package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/gateway/internal/adapters/watsonx"
	"github.com/echoverse/gateway/internal/app"
	"github.com/echoverse/gateway/internal/config"
	"github.com/echoverse/gateway/internal/models"
	"github.com/echoverse/gateway/internal/services/studio"
	"github.com/echoverse/gateway/internal/uploads"
)

type stubGenerator struct {
	result models.GenerationResult
	err    error
}

func (s *stubGenerator) Generate(context.Context, watsonx.GenerateParams) (models.GenerationResult, error) {
	return s.result, s.err
}

type stubSynthesizer struct {
	result models.SpeechResult
	voices []models.Voice
	err    error
}

func (s *stubSynthesizer) Synthesize(context.Context, models.SpeechRequest) (models.SpeechResult, error) {
	return s.result, s.err
}

func (s *stubSynthesizer) Voices(context.Context) ([]models.Voice, error) {
	return s.voices, s.err
}

type stubRecognizer struct {
	filename string
	result   models.TranscriptionResult
	err      error
}

func (s *stubRecognizer) Transcribe(_ context.Context, req models.TranscriptionRequest) (models.TranscriptionResult, error) {
	s.filename = req.Input.Filename
	return s.result, s.err
}

type stubTranslator struct {
	captured models.TranslationRequest
	result   models.TranslationResult
	err      error
}

func (s *stubTranslator) Translate(_ context.Context, req models.TranslationRequest) (models.TranslationResult, error) {
	s.captured = req
	return s.result, s.err
}

func newTestApp(t *testing.T, gen studio.Generator, syn studio.Synthesizer, rec studio.Recognizer) *fiber.App {
	t.Helper()
	return newTestAppWithTranslator(t, gen, syn, rec, &stubTranslator{})
}

func newTestAppWithTranslator(t *testing.T, gen studio.Generator, syn studio.Synthesizer, rec studio.Recognizer, tr studio.Translator) *fiber.App {
	t.Helper()

	spool, err := uploads.NewSpool(t.TempDir())
	require.NoError(t, err)

	svc, err := studio.New(studio.Options{
		Generator:     gen,
		Synthesizer:   syn,
		Recognizer:    rec,
		Translator:    tr,
		Spool:         spool,
		DefaultVoice:  "en-US_AllisonV3Voice",
		DefaultFormat: "audio/mp3",
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	fapp := fiber.New()
	Register(fapp, &app.Container{Config: &config.Config{}, Studio: svc})
	return fapp
}

func postJSON(t *testing.T, fapp *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestGenerateEndToEndAgainstStubProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"generated_text":"The sky exhibits a blue hue."}`))
	}))
	defer srv.Close()

	adapter, err := watsonx.New(watsonx.Options{
		Endpoint:  srv.URL,
		ProjectID: "project-123",
		ModelID:   "ibm/granite-3-8b-instruct",
	})
	require.NoError(t, err)

	fapp := newTestApp(t, adapter, &stubSynthesizer{}, &stubRecognizer{})
	resp := postJSON(t, fapp, "/api/generate", `{"prompt":"The sky is blue.","task":"rewrite","tone":"Formal"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"text": "The sky exhibits a blue hue."}, decodeJSON(t, resp))
}

func TestGenerateRequiresPrompt(t *testing.T) {
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{})

	resp := postJSON(t, fapp, "/api/generate", `{"task":"rewrite"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "prompt is required"}, decodeJSON(t, resp))
}

func TestGenerateCollapsesUpstreamFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("upstream said: invalid credentials for tenant 42")}
	fapp := newTestApp(t, gen, &stubSynthesizer{}, &stubRecognizer{})

	resp := postJSON(t, fapp, "/api/generate", `{"prompt":"hello"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "generation failed"}, decodeJSON(t, resp))
}

func TestSynthesizeReturnsAudioWithHeaders(t *testing.T) {
	syn := &stubSynthesizer{result: models.SpeechResult{
		Audio:    []byte{0xFF, 0xFB, 0x90, 0x64},
		MimeType: "audio/mp3",
	}}
	fapp := newTestApp(t, &stubGenerator{}, syn, &stubRecognizer{})

	resp := postJSON(t, fapp, "/api/tts", `{"text":"Welcome!"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "audio/mp3", resp.Header.Get("Content-Type"))
	require.Equal(t, `inline; filename="speech.mp3"`, resp.Header.Get("Content-Disposition"))
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, []byte{0xFF, 0xFB, 0x90, 0x64}, body)
}

func TestSynthesizeRequiresText(t *testing.T) {
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{})

	resp := postJSON(t, fapp, "/api/tts", `{"voice":"en-US_LisaV3Voice"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "text is required"}, decodeJSON(t, resp))
}

func TestSynthesizeCollapsesUpstreamFailure(t *testing.T) {
	syn := &stubSynthesizer{err: errors.New("upstream 503: backend pool exhausted")}
	fapp := newTestApp(t, &stubGenerator{}, syn, &stubRecognizer{})

	resp := postJSON(t, fapp, "/api/tts", `{"text":"hello"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "speech synthesis failed"}, decodeJSON(t, resp))
}

func TestTranscribeMultipartUpload(t *testing.T) {
	rec := &stubRecognizer{result: models.TranscriptionResult{Transcript: "hello world"}}
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, rec)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "clip.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-audio"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"transcript": "hello world"}, decodeJSON(t, resp))
	require.Equal(t, "clip.webm", rec.filename)
}

func TestTranscribeRequiresAudioFile(t *testing.T) {
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{})

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("note", "no file here"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "audio file is required"}, decodeJSON(t, resp))
}

func TestTranscribeCollapsesUpstreamFailure(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("recognizer blew up with internals")}
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, rec)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("audio", "clip.webm")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-audio"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stt", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "transcription failed"}, decodeJSON(t, resp))
}

func TestTranslateEndpoint(t *testing.T) {
	tr := &stubTranslator{result: models.TranslationResult{Translation: "आकाश नीला है।"}}
	fapp := newTestAppWithTranslator(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{}, tr)

	resp := postJSON(t, fapp, "/api/translate", `{"text":"The sky is blue.","source":"en","target":"hi"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, map[string]any{"translation": "आकाश नीला है।"}, decodeJSON(t, resp))
	require.Equal(t, "The sky is blue.", tr.captured.Text)
	require.Equal(t, "en", tr.captured.Source)
	require.Equal(t, "hi", tr.captured.Target)
}

func TestTranslateRequiresAllFields(t *testing.T) {
	fapp := newTestApp(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{})

	for _, body := range []string{
		`{"source":"en","target":"hi"}`,
		`{"text":"hi","target":"hi"}`,
		`{"text":"hi","source":"en"}`,
	} {
		resp := postJSON(t, fapp, "/api/translate", body)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		require.Equal(t, map[string]any{"error": "text, source, and target are required"}, decodeJSON(t, resp))
	}
}

func TestTranslateCollapsesUpstreamFailure(t *testing.T) {
	tr := &stubTranslator{err: errors.New("upstream 403: tenant suspended")}
	fapp := newTestAppWithTranslator(t, &stubGenerator{}, &stubSynthesizer{}, &stubRecognizer{}, tr)

	resp := postJSON(t, fapp, "/api/translate", `{"text":"hi","source":"en","target":"te"}`)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, map[string]any{"error": "translation failed"}, decodeJSON(t, resp))
}

func TestVoicesEndpoint(t *testing.T) {
	syn := &stubSynthesizer{voices: []models.Voice{
		{Name: "en-US_AllisonV3Voice", Language: "en-US", Gender: "female", Description: "Allison"},
	}}
	fapp := newTestApp(t, &stubGenerator{}, syn, &stubRecognizer{})

	req := httptest.NewRequest(http.MethodGet, "/api/voices", nil)
	resp, err := fapp.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	decoded := decodeJSON(t, resp)
	voices, ok := decoded["voices"].([]any)
	require.True(t, ok)
	require.Len(t, voices, 1)
}

func TestAudioFileExt(t *testing.T) {
	require.Equal(t, "mp3", audioFileExt("audio/mp3"))
	require.Equal(t, "mp3", audioFileExt("audio/mpeg"))
	require.Equal(t, "wav", audioFileExt("audio/wav"))
	require.Equal(t, "ogg", audioFileExt("audio/ogg"))
	require.Equal(t, "audio", audioFileExt("application/octet-stream"))
}
