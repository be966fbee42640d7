package model

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestIsValidRoomType(t *testing.T) {
	for _, r := range RoomTypes {
		assert.True(t, IsValidRoomType(r), r)
	}
	assert.False(t, IsValidRoomType("toilet"))
	assert.False(t, IsValidRoomType(""))
}

func TestBeforeAfter_IsValid(t *testing.T) {
	assert.True(t, Before.IsValid())
	assert.True(t, After.IsValid())
	assert.False(t, BeforeAfter("during").IsValid())
}

func TestUser_WantsRoom(t *testing.T) {
	all := &User{}
	assert.True(t, all.WantsRoom(RoomKitchen))

	picky := &User{NotifyRoomTypes: []string{RoomToilet, RoomBath}}
	assert.True(t, picky.WantsRoom(RoomToilet))
	assert.False(t, picky.WantsRoom(RoomKitchen))
}

func TestRoles(t *testing.T) {
	assert.True(t, CompanyRoleHeadquarter.IsValid())
	assert.False(t, CompanyRole("subsidiary").IsValid())
	assert.True(t, RoleClient.IsValid())
	assert.False(t, UserRole("admin").IsValid())
	assert.True(t, ApplicationAccepted.IsValid())
	assert.False(t, ApplicationStatus("done").IsValid())
}

func TestRelations_AreBelongsTo(t *testing.T) {
	cache := &sync.Map{}
	tests := []struct {
		model    interface{}
		relation string
		column   string
	}{
		{&CleaningImage{}, "Facility", "facility_id"},
		{&CleaningImage{}, "Record", "record_id"},
		{&CleaningRecord{}, "Facility", "facility_id"},
		{&Receipt{}, "Facility", "facility_id"},
		{&ClientApplication{}, "Facility", "facility_id"},
		{&ClientApplication{}, "User", "user_id"},
		{&User{}, "Company", "company_id"},
		{&User{}, "Facility", "facility_id"},
		{&Facility{}, "Company", "company_id"},
	}

	for _, tt := range tests {
		s, err := schema.Parse(tt.model, cache, schema.NamingStrategy{})
		require.NoError(t, err)

		rel, ok := s.Relationships.Relations[tt.relation]
		require.True(t, ok, "%s.%s", s.Name, tt.relation)
		assert.Equal(t, schema.BelongsTo, rel.Type, "%s.%s", s.Name, tt.relation)
		require.Len(t, rel.References, 1)
		assert.Equal(t, tt.column, rel.References[0].ForeignKey.DBName, "%s.%s", s.Name, tt.relation)
		assert.Equal(t, "id", rel.References[0].PrimaryKey.DBName, "%s.%s", s.Name, tt.relation)
	}
}

func TestMarshalJSON_RendersJSTIncludingRelations(t *testing.T) {
	created := time.Date(2024, 3, 31, 15, 30, 0, 0, time.UTC)
	requested := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)
	app := &ClientApplication{
		ID:            7,
		RoomType:      "トイレ",
		RequestedDate: &requested,
		CreatedAt:     created,
		UpdatedAt:     created,
		Facility:      &Facility{ID: 1, Code: "FAC001", CreatedAt: created, UpdatedAt: created},
	}

	data, err := json.Marshal(app)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.EqualValues(t, 7, out["id"])
	assert.Equal(t, "2024-04-01T00:00:00+09:00", out["requestedDate"])
	assert.Equal(t, "2024-04-01T00:30:00+09:00", out["createdAt"])
	facility := out["facility"].(map[string]interface{})
	assert.Equal(t, "FAC001", facility["facilityId"])
	assert.Equal(t, "2024-04-01T00:30:00+09:00", facility["createdAt"])
	assert.NotContains(t, out, "user")

	// the stored value is left in UTC
	assert.Equal(t, time.UTC, app.CreatedAt.Location())
}
