package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/Adithya6721/lexplain-veritas-sync/internal/analysis"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/anchor"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/assembler"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/config"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/consent"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/generator"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/store"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/tasks"
	"github.com/Adithya6721/lexplain-veritas-sync/internal/voicestore"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/db"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/domain"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/evidence"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/httpx"
	"github.com/Adithya6721/lexplain-veritas-sync/pkg/signing"
)

const maxVoiceUpload = 10 << 20 // 10 MiB

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()
	st := store.New(pool)

	key, err := signing.NewKeyStore(cfg.Signing.Backend, cfg.Signing.ServiceName, cfg.Signing.KeyFile, logger).Load()
	if err != nil {
		logger.Error("signing key load failed", "err", err)
		os.Exit(1)
	}
	signer, err := signing.NewSigner(key)
	if err != nil {
		logger.Error("signer init failed", "err", err)
		os.Exit(1)
	}

	var voices voicestore.BlobStore
	if cfg.Minio.Endpoint != "" {
		m, err := voicestore.NewMinio(ctx, cfg.Minio.Endpoint, cfg.Minio.Region, cfg.Minio.BucketName, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
		if err != nil {
			logger.Error("minio init failed", "err", err)
			os.Exit(1)
		}
		voices = m
	} else {
		d, err := voicestore.NewDir(cfg.VoiceDir)
		if err != nil {
			logger.Error("voice dir init failed", "err", err)
			os.Exit(1)
		}
		voices = d
		logger.Warn("minio not configured, storing voice consents on local disk", "dir", cfg.VoiceDir)
	}

	anchorer := anchor.NewAnchorer(
		anchor.NewIPFSClient(cfg.Anchoring.IPFSAPIURL, nil),
		anchor.NewLedgerClient(cfg.Anchoring.LedgerURL, cfg.Anchoring.LedgerAPIKey, nil),
		st, logger)

	providers := []analysis.Provider{}
	if cfg.OpenAI.APIKey != "" {
		providers = append(providers, analysis.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model))
	}
	providers = append(providers, analysis.NewHeuristicProvider())
	worker := tasks.NewWorker(st, analysis.NewChain(logger, providers...), 64, logger)
	go worker.Run(ctx)

	gen := generator.New(st, consent.NewRecorder(st, st, voices), assembler.New(st), signer, anchorer, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/evidence", func(api chi.Router) {

		api.Post("/generate", func(w http.ResponseWriter, r *http.Request) {
			req, err := readGenerateRequest(r)
			if err != nil {
				httpx.WriteError(w, 400, "BAD_REQUEST", err.Error(), nil)
				return
			}
			res, err := gen.Generate(r.Context(), req)
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id":           httpx.NewRequestID(),
				"success":              true,
				"evidence_id":          res.EvidenceID,
				"evidence_hash":        res.EvidenceHash,
				"signature":            res.Signature,
				"blockchain_anchored":  res.BlockchainAnchored,
				"ipfs_anchored":        res.IPFSAnchored,
				"fingerprint_captured": res.FingerprintCaptured,
				"voice_recorded":       res.VoiceRecorded,
				"location_captured":    res.LocationCaptured,
			})
		})

		api.Get("/{evidence_id}", func(w http.ResponseWriter, r *http.Request) {
			view, err := gen.GetEvidence(r.Context(), chi.URLParam(r, "evidence_id"))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id": httpx.NewRequestID(),
				"record":     view.Record,
				"verified":   view.Verified,
				"report":     view.Report,
			})
		})

		api.Post("/verify", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				EvidenceJSON json.RawMessage `json:"evidence_json"`
				Signature    string          `json:"signature"`
				PublicKey    string          `json:"public_key"`
			}
			if err := httpx.ReadJSON(r, &req); err != nil {
				httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
				return
			}
			report := evidence.Verify(evidence.VerifyInput{
				EvidenceJSON: req.EvidenceJSON,
				Signature:    req.Signature,
				PublicKeyB64: req.PublicKey,
			})
			httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "report": report})
		})

		api.Post("/{evidence_id}/anchors:retry", func(w http.ResponseWriter, r *http.Request) {
			res, err := gen.RetryAnchors(r.Context(), chi.URLParam(r, "evidence_id"))
			if err != nil {
				httpx.WriteDomainError(w, err)
				return
			}
			httpx.WriteJSON(w, 200, map[string]any{
				"request_id":          httpx.NewRequestID(),
				"blockchain_anchored": res.TxHash != nil,
				"ipfs_anchored":       res.IPFSHash != nil,
			})
		})
	})

	r.Get("/documents/{document_id}/chain", func(w http.ResponseWriter, r *http.Request) {
		links, err := gen.AuditChain(r.Context(), chi.URLParam(r, "document_id"))
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		valid := true
		for _, l := range links {
			if !l.HashValid || !l.LinkValid {
				valid = false
			}
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "chain_valid": valid, "links": links})
	})

	// Ingest boundary: the upload/OCR pipeline hands over already-extracted
	// text here; clause analysis runs on the background worker and moves the
	// document through uploaded -> processing -> completed|failed.
	r.Post("/documents", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filename    string `json:"filename"`
			StoragePath string `json:"storage_path"`
			OCRText     string `json:"ocr_text"`
		}
		if err := httpx.ReadJSON(r, &req); err != nil {
			httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
			return
		}
		if req.Filename == "" {
			httpx.WriteError(w, 400, "BAD_REQUEST", "filename is required", nil)
			return
		}
		doc := domain.Document{
			DocumentID:  "doc_" + uuid.NewString(),
			Filename:    req.Filename,
			StoragePath: req.StoragePath,
			Status:      domain.DocumentUploaded,
			CreatedAt:   time.Now().UTC(),
		}
		if doc.StoragePath == "" {
			doc.StoragePath = "documents/" + doc.DocumentID + "/" + doc.Filename
		}
		if err := st.CreateDocument(r.Context(), doc); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		if !worker.Enqueue(tasks.Task{DocumentID: doc.DocumentID, OCRText: req.OCRText}) {
			httpx.WriteError(w, 503, "QUEUE_FULL", "analysis queue full", nil)
			return
		}
		httpx.WriteJSON(w, 202, map[string]any{
			"request_id":  httpx.NewRequestID(),
			"document_id": doc.DocumentID,
			"status":      doc.Status,
		})
	})

	r.Get("/documents/{document_id}", func(w http.ResponseWriter, r *http.Request) {
		doc, err := st.GetDocument(r.Context(), chi.URLParam(r, "document_id"))
		if err != nil {
			httpx.WriteDomainError(w, err)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{"request_id": httpx.NewRequestID(), "document": doc})
	})

	// DEV helper to seed a completed document + analysis + OTP for smoke tests
	r.Post("/dev/seed-analysis", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Filename string `json:"filename"`
			OCRText  string `json:"ocr_text"`
			OTPCode  string `json:"otp_code"`
		}
		_ = httpx.ReadJSON(r, &req)
		if req.Filename == "" {
			req.Filename = "sample.pdf"
		}
		if req.OTPCode == "" {
			req.OTPCode = "000000"
		}
		doc := domain.Document{
			DocumentID:  "doc_" + uuid.NewString(),
			Filename:    req.Filename,
			StoragePath: "documents/dev/" + req.Filename,
			Status:      domain.DocumentCompleted,
			CreatedAt:   time.Now().UTC(),
		}
		if err := st.CreateDocument(r.Context(), doc); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		result, err := analysis.NewHeuristicProvider().Analyze(r.Context(), doc.DocumentID, req.OCRText)
		if err != nil {
			httpx.WriteError(w, 500, "ANALYSIS_ERROR", err.Error(), nil)
			return
		}
		if err := st.CreateAnalysis(r.Context(), result); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		if err := st.SeedOTP(r.Context(), result.AnalysisID, store.HashOTP(req.OTPCode)); err != nil {
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
			return
		}
		httpx.WriteJSON(w, 200, map[string]any{
			"request_id":  httpx.NewRequestID(),
			"document_id": doc.DocumentID,
			"analysis_id": result.AnalysisID,
			"otp_code":    req.OTPCode,
		})
	})

	logger.Info("listening", "port", cfg.Server.Port)
	if err := http.ListenAndServe(":"+cfg.Server.Port, r); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

// readGenerateRequest accepts either a JSON body or a multipart form with an
// optional voice_file part.
func readGenerateRequest(r *http.Request) (generator.GenerateRequest, error) {
	if ct := r.Header.Get("Content-Type"); strings.HasPrefix(ct, "multipart/form-data") {
		return readMultipartGenerate(r)
	}
	var req struct {
		AnalysisID      string           `json:"analysis_id"`
		PhoneNumber     *string          `json:"phone_number"`
		OTPCode         string           `json:"otp_code"`
		FingerprintHash string           `json:"fingerprint_hash"`
		Location        *domain.Location `json:"location"`
	}
	if err := httpx.ReadJSON(r, &req); err != nil {
		return generator.GenerateRequest{}, err
	}
	return generator.GenerateRequest{
		AnalysisID:      req.AnalysisID,
		PhoneNumber:     req.PhoneNumber,
		OTPCode:         req.OTPCode,
		FingerprintHash: req.FingerprintHash,
		Location:        req.Location,
	}, nil
}

func readMultipartGenerate(r *http.Request) (generator.GenerateRequest, error) {
	if err := r.ParseMultipartForm(maxVoiceUpload); err != nil {
		return generator.GenerateRequest{}, err
	}
	req := generator.GenerateRequest{
		AnalysisID:      r.FormValue("analysis_id"),
		OTPCode:         r.FormValue("otp_code"),
		FingerprintHash: r.FormValue("fingerprint_hash"),
	}
	if p := r.FormValue("phone_number"); p != "" {
		req.PhoneNumber = &p
	}
	if loc := r.FormValue("location"); loc != "" {
		var l domain.Location
		if err := json.Unmarshal([]byte(loc), &l); err != nil {
			return generator.GenerateRequest{}, err
		}
		req.Location = &l
	}
	file, _, err := r.FormFile("voice_file")
	if err == nil {
		defer file.Close()
		blob, err := io.ReadAll(io.LimitReader(file, maxVoiceUpload))
		if err != nil {
			return generator.GenerateRequest{}, err
		}
		req.VoiceBlob = blob
	} else if err != http.ErrMissingFile {
		return generator.GenerateRequest{}, err
	}
	return req, nil
}
