package spindle

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kbukum/spindle/dv360"
	"github.com/kbukum/spindle/errors"
	"github.com/kbukum/spindle/util"
	"github.com/kbukum/spindle/validation"
)

// Names of the pipeline variables.
const (
	VarCloudProjectID     = "cloud_project_id"
	VarGCSBucket          = "gcs_bucket"
	VarPartnerIDs         = "partner_ids"
	VarSDFFileTypes       = "sdf_file_types"
	VarSDFAPIVersion      = "sdf_api_version"
	VarAdvertisersPerCall = "number_of_advertisers_per_sdf_api_call"
	VarSDFAdvertisers     = "dv360_sdf_advertisers"
	VarSDFDataset         = "sdf_bq_dataset"
)

// PartnerAdvertisers is the ordered partner to advertiser mapping stored
// under dv360_sdf_advertisers.
type PartnerAdvertisers = dv360.PartnerAdvertisers

// VariableReader reads pipeline variables. A missing variable is reported
// with errors.VariableMissing.
type VariableReader interface {
	Get(ctx context.Context, name string) (string, error)
}

// Variables are the inputs of one graph construction.
type Variables struct {
	CloudProjectID     string
	GCSBucket          string
	PartnerIDs         []string
	SDFFileTypes       []string
	SDFAPIVersion      string
	AdvertisersPerCall int
	Advertisers        PartnerAdvertisers
	SDFDataset         string
}

// LoadVariables reads and validates every pipeline variable. None has a
// default.
func LoadVariables(ctx context.Context, store VariableReader) (*Variables, error) {
	raw := make(map[string]string)
	for _, name := range []string{
		VarCloudProjectID, VarGCSBucket, VarPartnerIDs, VarSDFFileTypes,
		VarSDFAPIVersion, VarAdvertisersPerCall, VarSDFAdvertisers, VarSDFDataset,
	} {
		v, err := store.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		raw[name] = v
	}

	vars := &Variables{
		CloudProjectID: raw[VarCloudProjectID],
		GCSBucket:      raw[VarGCSBucket],
		PartnerIDs:     util.SplitList(raw[VarPartnerIDs]),
		SDFFileTypes:   util.SplitList(raw[VarSDFFileTypes]),
		SDFAPIVersion:  raw[VarSDFAPIVersion],
		SDFDataset:     raw[VarSDFDataset],
	}

	n, err := strconv.Atoi(raw[VarAdvertisersPerCall])
	if err != nil {
		return nil, errors.InvalidInput(VarAdvertisersPerCall, fmt.Sprintf("%q is not an integer", raw[VarAdvertisersPerCall]))
	}
	vars.AdvertisersPerCall = n

	if err := json.Unmarshal([]byte(raw[VarSDFAdvertisers]), &vars.Advertisers); err != nil {
		return nil, errors.InvalidInput(VarSDFAdvertisers, err.Error()).WithCause(err)
	}

	if err := vars.Validate(); err != nil {
		return nil, err
	}
	return vars, nil
}

// Validate checks the variables.
func (v *Variables) Validate() error {
	return validation.New().
		Required(VarCloudProjectID, v.CloudProjectID).
		Required(VarGCSBucket, v.GCSBucket).
		NotEmpty(VarPartnerIDs, v.PartnerIDs).
		Digits(VarPartnerIDs, v.PartnerIDs...).
		NotEmpty(VarSDFFileTypes, v.SDFFileTypes).
		Required(VarSDFAPIVersion, v.SDFAPIVersion).
		Min(VarAdvertisersPerCall, v.AdvertisersPerCall, 1).
		Required(VarSDFDataset, v.SDFDataset).
		Validate()
}
