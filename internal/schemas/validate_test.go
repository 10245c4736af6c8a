package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCampaign = `{
	"id": "c-1",
	"job": {"title": "Platform Engineer", "company_name": "Acme"},
	"state": {
		"phase": "waiting_user",
		"steps": {"research": {"status": "done"}, "evidence": {"status": "done"}},
		"artifacts": {"contacts": [{"name": "Dana"}]},
		"trace": [{"type": "step_update", "step": "research", "timestamp": "2026-08-29T10:00:00Z"}]
	}
}`

func TestValidate_CampaignRecord_Valid(t *testing.T) {
	err := Validate(CampaignRecord, []byte(validCampaign))
	assert.NoError(t, err)
}

func TestValidate_CampaignRecord_MissingJob(t *testing.T) {
	err := Validate(CampaignRecord, []byte(`{"id": "c-1", "state": {"phase": "idle"}}`))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidate_CampaignRecord_BadPhase(t *testing.T) {
	payload := `{
		"id": "c-1",
		"job": {"title": "Engineer", "company_name": "Acme"},
		"state": {"phase": "sideways"}
	}`

	err := Validate(CampaignRecord, []byte(payload))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok, "error should be ValidationError type")
	require.Len(t, validationErr.Errors, 1)
	assert.Equal(t, "state.phase", validationErr.Errors[0].Field)
}

func TestValidate_JobFeedPage_Valid(t *testing.T) {
	payload := `{
		"jobs": [
			{"id": "j-1", "title": "SRE", "company_name": "Acme", "ats_type": "greenhouse", "saved_status": "saved"},
			{"id": "j-2", "title": "Backend Engineer", "company_name": "初速"}
		],
		"page": 1,
		"page_size": 20,
		"total": 2,
		"total_pages": 1
	}`

	assert.NoError(t, Validate(JobFeedPage, []byte(payload)))
}

func TestValidate_JobFeedPage_WrongTypes(t *testing.T) {
	payload := `{"jobs": "none", "page": "first", "total": 0}`

	err := Validate(JobFeedPage, []byte(payload))
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Len(t, validationErr.Errors, 2)
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("no_such_schema", []byte(`{}`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "no_such_schema", loadErr.Name)
}

func TestValidate_MalformedDocument(t *testing.T) {
	err := Validate(CampaignRecord, []byte(`{"id":`))
	require.Error(t, err)
}

func TestValidate_ErrorMessageListsFields(t *testing.T) {
	err := Validate(CampaignRecord, []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed:")
}
