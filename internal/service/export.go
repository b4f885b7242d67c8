package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/metrics"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ExportStore keeps export status records; satisfied by the prefixing
// redis client.
type ExportStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	SAdd(ctx context.Context, key string, members ...any) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// ExportUploader holds the finished workbook; satisfied by the S3
// client.
type ExportUploader interface {
	UploadExport(ctx context.Context, providerID, fileName string, data []byte) (string, error)
	GetTemporaryURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ExportNotifier pushes progress events to the provider's dashboard.
type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, providerID, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, providerID, exportID, url, filename string) error
	NotifyExportFailed(ctx context.Context, providerID, exportID, errMsg string) error
}

// ExportStatus tracks one running or finished book export; lives in
// redis under the export key with a TTL.
type ExportStatus struct {
	Key        string    `json:"key"`
	ProviderID string    `json:"provider_id"`
	Fields     []string  `json:"fields"`
	Progress   float64   `json:"progress"`
	FileURL    *string   `json:"file_url"`
	Created    time.Time `json:"created_at"`
}

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute
	exportURLTTL = 48 * time.Hour
)

type ClientColumn struct {
	Header string
	Value  func(c domain.Client) any
}

var clientColumns = map[string]ClientColumn{
	"name": {
		Header: "Nome",
		Value:  func(c domain.Client) any { return c.Name },
	},
	"cpf": {
		Header: "CPF",
		Value:  func(c domain.Client) any { return identity.FormatCPF(identity.Digits(c.CPF)) },
	},
	"email": {
		Header: "E-mail",
		Value:  func(c domain.Client) any { return c.Email },
	},
	"phone": {
		Header: "Telefone",
		Value:  func(c domain.Client) any { return c.Phone },
	},
	"address": {
		Header: "Endereço",
		Value:  func(c domain.Client) any { return c.Address },
	},
	"bairro": {
		Header: "Bairro",
		Value:  func(c domain.Client) any { return c.Bairro },
	},
	"debt_amount": {
		Header: "Valor da dívida",
		Value:  func(c domain.Client) any { return c.DebtAmount },
	},
	"reason": {
		Header: "Motivo da inclusão",
		Value:  func(c domain.Client) any { return c.Reason },
	},
	"inclusion_date": {
		Header: "Data da inclusão",
		Value:  func(c domain.Client) any { return c.InclusionDate.Format("2006-01-02") },
	},
	"risk_level": {
		Header: "Nível de risco",
		Value:  func(c domain.Client) any { return c.RiskLevel },
	},
	"observations": {
		Header: "Observações",
		Value:  func(c domain.Client) any { return c.Observations },
	},
	"is_active": {
		Header: "Ativo",
		Value:  func(c domain.Client) any { return c.IsActive },
	},
}

// ExportService generates XLSX exports of a provider's own book,
// reporting progress over the websocket hub and delivering the file
// through a presigned S3 URL.
type ExportService struct {
	repo  ClientRepository
	redis ExportStore
	s3    ExportUploader
	ws    ExportNotifier
}

func NewExportService(repo ClientRepository, redis ExportStore, s3 ExportUploader, ws ExportNotifier) *ExportService {
	return &ExportService{
		repo:  repo,
		redis: redis,
		s3:    s3,
		ws:    ws,
	}
}

func (s *ExportService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}

	data, err := json.Marshal(st)
	if err != nil {
		return err
	}

	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}

	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartClientsExport kicks off an export of the provider's full book
// (active and settled records) and returns the export id immediately.
func (s *ExportService) StartClientsExport(ctx context.Context, providerID string, selected []string) (string, error) {
	if len(selected) == 0 {
		selected = []string{"name", "cpf", "debt_amount", "inclusion_date"}
	}

	exportID := fmt.Sprintf("exports:%s", uuid.NewString())

	status := &ExportStatus{
		Key:        exportID,
		ProviderID: providerID,
		Fields:     selected,
		Progress:   0,
		Created:    time.Now().UTC(),
	}

	if err := s.saveStatus(ctx, status); err != nil {
		log.Printf("export status save error: %v", err)
	}

	go s.runClientsExport(context.Background(), status)

	return exportID, nil
}

func (s *ExportService) runClientsExport(ctx context.Context, status *ExportStatus) {
	fail := func(msg string, err error) {
		log.Printf("export %s: %s: %v", status.Key, msg, err)
		metrics.ObserveExport("failed")
		if s.ws != nil {
			_ = s.ws.NotifyExportFailed(ctx, status.ProviderID, status.Key, msg)
		}
	}

	book, err := s.repo.ListByProvider(ctx, status.ProviderID, false)
	if err != nil {
		fail("load book", err)
		return
	}

	var cols []ClientColumn
	for _, key := range status.Fields {
		col, ok := clientColumns[key]
		if !ok {
			continue
		}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		fail("no exportable fields selected", nil)
		return
	}

	f := excelize.NewFile()
	sheet := "Clientes"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(book)
	chunkSize := 500
	for i, c := range book {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			_ = f.SetCellValue(sheet, cell, col.Value(c))
		}

		if (i+1)%chunkSize == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 100.0)
			// 100% is reserved for the moment the file URL exists
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = s.saveStatus(ctx, status)
			if s.ws != nil {
				_ = s.ws.NotifyExportProgress(ctx, status.ProviderID, status.Key, progress, "generating")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail("write workbook", err)
		return
	}

	fileName := fmt.Sprintf("clients_%s.xlsx", time.Now().Format("20060102_150405"))

	if s.s3 == nil {
		fail("object storage not configured", nil)
		return
	}

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.ProviderID, status.Key, 95, "uploading")
	}

	key, err := s.s3.UploadExport(ctx, status.ProviderID, fileName, buf.Bytes())
	if err != nil {
		fail("upload", err)
		return
	}

	url, err := s.s3.GetTemporaryURL(ctx, key, exportURLTTL)
	if err != nil {
		fail("presign", err)
		return
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	metrics.ObserveExport("ok")

	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.ProviderID, status.Key, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, status.ProviderID, status.Key, url, fileName)
	}
}

// GetExports lists the provider's own exports, newest first.
func (s *ExportService) GetExports(ctx context.Context, providerID string) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get export keys: %w", err)
	}

	var statuses []ExportStatus
	for _, key := range keys {
		data, err := s.redis.Get(ctx, key)
		if err != nil {
			continue // expired
		}

		var status ExportStatus
		if err := json.Unmarshal([]byte(data), &status); err != nil {
			continue
		}
		if status.ProviderID == providerID {
			statuses = append(statuses, status)
		}
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})

	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID, providerID string) (*ExportStatus, error) {
	if s.redis == nil {
		return nil, errors.New("redis client not configured")
	}

	data, err := s.redis.Get(ctx, exportID)
	if err != nil {
		return nil, ErrNotFound
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, fmt.Errorf("failed to parse export status: %w", err)
	}

	// ownership is part of the key space, not the URL
	if status.ProviderID != providerID {
		return nil, ErrNotFound
	}

	return &status, nil
}
