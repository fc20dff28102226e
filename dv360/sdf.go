package dv360

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"

	dv "google.golang.org/api/displayvideo/v3"
	"google.golang.org/api/option"

	apperrors "github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/resilience"
)

const (
	sdfVersionPrefix   = "SDF_VERSION_"
	fileTypePrefix     = "FILE_TYPE_"
	filterAdvertiserID = "FILTER_TYPE_ADVERTISER_ID"
)

// SDFRequest selects the SDF files to download for one advertiser group.
type SDFRequest struct {
	Partner     string
	Advertisers []string
	// FileTypes are SDF file types such as "LINE_ITEM" or "FILE_TYPE_LINE_ITEM".
	FileTypes []string
	// Version is an SDF version such as "5.5" or "SDF_VERSION_5_5".
	Version string
}

// SDFFile is one CSV file from an SDF archive.
type SDFFile struct {
	// Name is the archive entry name, e.g. "SDF-LineItems.csv".
	Name string
	// Table is the warehouse table the file loads into, e.g. "SDFLineItem".
	Table string
	Body  io.Reader
}

// SDFClient downloads Structured Data Files.
type SDFClient struct {
	svc *dv.Service
	rl  *resilience.RateLimiter
	cfg Config
	log *logger.Logger
}

// NewSDFClient creates a Display & Video 360 v3 client. opts are appended
// to the options derived from cfg.
func NewSDFClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*SDFClient, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc, err := dv.NewService(ctx, cfg.clientOptions(cfg.SDFEndpoint, opts)...)
	if err != nil {
		return nil, fmt.Errorf("dv360: display video client: %w", err)
	}
	return &SDFClient{
		svc: svc,
		rl:  cfg.limiter("dv360-sdf"),
		cfg: cfg,
		log: logger.Get("dv360"),
	}, nil
}

// DownloadSDF creates an SDF download task for req, waits for it and calls
// fn for every CSV file in the resulting archive in name order. Files whose
// name contains "Skipped" list entities the API left out and are not passed
// to fn.
func (c *SDFClient) DownloadSDF(ctx context.Context, req SDFRequest, fn func(SDFFile) error) error {
	create, err := buildTaskRequest(req)
	if err != nil {
		return err
	}
	log := c.log.WithFields(logger.Fields(logger.FieldPartner, req.Partner, "advertisers", strings.Join(req.Advertisers, ",")))

	if err := wait(ctx, c.rl); err != nil {
		return err
	}
	op, err := c.svc.Sdfdownloadtasks.Create(create).Context(ctx).Do()
	if err != nil {
		return translate("sdf download task", err)
	}
	log.Info("sdf download task created", logger.Fields("operation", op.Name))

	op, err = c.awaitTask(ctx, op)
	if err != nil {
		return err
	}
	var task dv.SdfDownloadTask
	if err := json.Unmarshal(op.Response, &task); err != nil || task.ResourceName == "" {
		return apperrors.ExternalServiceError("dv360", fmt.Errorf("operation %s returned no resource name", op.Name))
	}

	archive, err := c.download(ctx, task.ResourceName)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(archive) }()

	n, err := eachSDFFile(archive, fn)
	if err != nil {
		return err
	}
	log.Info("sdf files extracted", logger.Fields("files", n))
	return nil
}

func (c *SDFClient) awaitTask(ctx context.Context, op *dv.Operation) (*dv.Operation, error) {
	name := op.Name
	err := resilience.Poll(ctx, c.cfg.SDFPollInterval, c.cfg.SDFTimeout, func(ctx context.Context) (bool, error) {
		if op.Done {
			return true, nil
		}
		if err := wait(ctx, c.rl); err != nil {
			return false, err
		}
		next, err := c.svc.Sdfdownloadtasks.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return false, translate("sdf download task", err)
		}
		op = next
		return op.Done, nil
	})
	if errors.Is(err, resilience.ErrPollTimeout) {
		return nil, apperrors.Timeout("sdf download task").WithCause(err)
	}
	if err != nil {
		return nil, err
	}
	if op.Error != nil {
		return nil, apperrors.ExternalServiceError("dv360",
			fmt.Errorf("sdf download task %s failed: %d %s", name, op.Error.Code, op.Error.Message))
	}
	return op, nil
}

// download streams the archive to a temporary file so it can be read with
// random access.
func (c *SDFClient) download(ctx context.Context, resourceName string) (string, error) {
	if err := wait(ctx, c.rl); err != nil {
		return "", err
	}
	resp, err := c.svc.Media.Download(resourceName).Context(ctx).Download()
	if err != nil {
		return "", translate("sdf archive", err)
	}
	defer func() { _ = resp.Body.Close() }()

	f, err := os.CreateTemp("", "spindle-sdf-*.zip")
	if err != nil {
		return "", apperrors.Internal(err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", apperrors.ExternalServiceError("dv360", fmt.Errorf("read sdf archive: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", apperrors.Internal(err)
	}
	return f.Name(), nil
}

func eachSDFFile(archive string, fn func(SDFFile) error) (int, error) {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return 0, apperrors.ExternalServiceError("dv360", fmt.Errorf("open sdf archive: %w", err))
	}
	defer func() { _ = zr.Close() }()

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if _, ok := TableName(f.Name); ok {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	for _, f := range files {
		table, _ := TableName(f.Name)
		rc, err := f.Open()
		if err != nil {
			return 0, apperrors.ExternalServiceError("dv360", fmt.Errorf("open %s: %w", f.Name, err))
		}
		err = fn(SDFFile{Name: path.Base(f.Name), Table: table, Body: rc})
		_ = rc.Close()
		if err != nil {
			return 0, err
		}
	}
	return len(files), nil
}

// TableName maps an SDF archive entry to its warehouse table:
// "SDF-LineItems.csv" becomes "SDFLineItem". It reports false for entries
// that are not SDF CSV files or that list skipped entities.
func TableName(entry string) (string, bool) {
	base := path.Base(entry)
	if !strings.HasPrefix(base, "SDF-") || !strings.HasSuffix(base, ".csv") || strings.Contains(base, "Skipped") {
		return "", false
	}
	name := strings.TrimSuffix(strings.TrimPrefix(base, "SDF-"), ".csv")
	name = strings.TrimSuffix(name, "s")
	if name == "" {
		return "", false
	}
	return "SDF" + name, true
}

func buildTaskRequest(req SDFRequest) (*dv.CreateSdfDownloadTaskRequest, error) {
	partnerID, err := strconv.ParseInt(req.Partner, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidInput("partner", fmt.Sprintf("partner id %q is not numeric", req.Partner))
	}
	if len(req.Advertisers) == 0 {
		return nil, apperrors.InvalidInput("advertisers", "at least one advertiser is required")
	}
	if len(req.FileTypes) == 0 {
		return nil, apperrors.InvalidInput("file_types", "at least one file type is required")
	}
	ids := make([]int64, 0, len(req.Advertisers))
	for _, a := range req.Advertisers {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, apperrors.InvalidInput("advertisers", fmt.Sprintf("advertiser id %q is not numeric", a))
		}
		ids = append(ids, id)
	}
	fileTypes := make([]string, len(req.FileTypes))
	for i, ft := range req.FileTypes {
		fileTypes[i] = FileType(ft)
	}
	return &dv.CreateSdfDownloadTaskRequest{
		PartnerId: partnerID,
		Version:   Version(req.Version),
		ParentEntityFilter: &dv.ParentEntityFilter{
			FileType:   fileTypes,
			FilterType: filterAdvertiserID,
			FilterIds:  ids,
		},
	}, nil
}

// Version normalizes an SDF version: "5.5" becomes "SDF_VERSION_5_5".
func Version(v string) string {
	v = strings.ToUpper(strings.TrimSpace(v))
	if strings.HasPrefix(v, sdfVersionPrefix) {
		return v
	}
	return sdfVersionPrefix + strings.ReplaceAll(v, ".", "_")
}

// FileType normalizes an SDF file type: "line_item" becomes
// "FILE_TYPE_LINE_ITEM".
func FileType(t string) string {
	t = strings.ToUpper(strings.TrimSpace(t))
	if strings.HasPrefix(t, fileTypePrefix) {
		return t
	}
	return fileTypePrefix + t
}
