package operators

import (
	"context"
	"fmt"

	"github.com/kbukum/spindle/dag"
	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/logger"
	"github.com/kbukum/spindle/storage"
	"github.com/kbukum/spindle/warehouse"
)

// AdvertiserGroup is one SDF download: a partner's advertisers, at most
// the configured group size, and the disposition its tables load with.
type AdvertiserGroup struct {
	Partner string
	// Index numbers the group within its partner, starting at 0.
	Index            int
	Advertisers      []string
	WriteDisposition string
}

// SDFToBigQuery downloads the SDF files of one advertiser group, stages
// each under sdf/<partner>/<group>/ and loads it into SDF<FileType> with an
// autodetected schema.
type SDFToBigQuery struct {
	ID        string
	Group     AdvertiserGroup
	FileTypes []string
	Version   string
	// Dataset is the destination of the SDF tables.
	Dataset   warehouse.TableRef
	SDF       SDFDownloader
	Store     ObjectStore
	Warehouse Warehouse
}

func (o *SDFToBigQuery) Name() string { return o.ID }
func (o *SDFToBigQuery) Kind() string { return "dv360.sdf_to_bigquery" }

func (o *SDFToBigQuery) Run(ctx context.Context, _ *dag.State) (any, error) {
	log := logger.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldPartner, o.Group.Partner,
		"group", o.Group.Index,
	))
	req := dv360.SDFRequest{
		Partner:     o.Group.Partner,
		Advertisers: o.Group.Advertisers,
		FileTypes:   o.FileTypes,
		Version:     o.Version,
	}

	var tables []string
	err := o.SDF.DownloadSDF(ctx, req, func(f dv360.SDFFile) error {
		object := o.object(f.Table)
		if err := o.Store.Upload(ctx, object, f.Body); err != nil {
			return storage.ToAppError(object, err)
		}
		if err := o.load(ctx, object, f.Table); err != nil {
			return err
		}
		log.Info("sdf file loaded", logger.Fields(logger.FieldTable, f.Table, logger.FieldObject, object))
		tables = append(tables, f.Table)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (o *SDFToBigQuery) object(table string) string {
	return fmt.Sprintf("sdf/%s/%d/%s.csv", o.Group.Partner, o.Group.Index, table)
}

func (o *SDFToBigQuery) load(ctx context.Context, object, table string) error {
	dst := o.Dataset
	dst.Table = table
	req := warehouse.LoadRequest{
		Table:               dst,
		SkipLeadingRows:     1,
		AllowQuotedNewlines: true,
		Autodetect:          true,
		WriteDisposition:    o.Group.WriteDisposition,
		CreateDisposition:   warehouse.CreateIfNeeded,
	}
	src, err := attachSource(ctx, o.Store, object, &req)
	if err != nil {
		return err
	}
	defer src.Close()
	return o.Warehouse.LoadCSV(ctx, req)
}
