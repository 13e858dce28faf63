package services_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casting-intake/internal/adapters/repo/memory"
	"github.com/casting-intake/internal/core/services"
)

func newProjectService(creator services.ChannelCreator, defaultChannel string) (*services.ProjectService, *memory.ProjectRepository) {
	clock := services.NewFakeClock(baseTime)
	repo := memory.NewProjectRepository()
	provisioner := services.NewChannelProvisioner(creator, services.NewFakeScheduler(clock), services.ChannelProvisionerConfig{DefaultChannelID: defaultChannel}, nil)
	return services.NewProjectService(repo, provisioner, clock, nil), repo
}

func TestCreateProject_ProvisionsMissingChannels(t *testing.T) {
	creator := &scriptedChannels{id: "PL-new"}
	svc, repo := newProjectService(creator, "PL-default")

	res, err := svc.CreateProject(context.Background(), services.CreateProjectInput{
		Name: "Summer Show",
		Roles: []services.RoleInput{
			{Name: "Lead"},
			{Name: "Villain", ChannelID: "PL-existing"},
			{Name: "Extra"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Roles, 3)
	assert.Equal(t, "PL-new", res.Roles[0].ChannelID)
	assert.Equal(t, "PL-existing", res.Roles[1].ChannelID)
	assert.Equal(t, "PL-new", res.Roles[2].ChannelID)

	names := append([]string(nil), creator.names...)
	sort.Strings(names)
	assert.Equal(t, []string{"Summer Show - Extra", "Summer Show - Lead"}, names)

	stored, err := repo.FindByID(context.Background(), res.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Len(t, stored.Roles, 3)
}

func TestCreateProject_QuotaFallsBackPerRole(t *testing.T) {
	creator := &scriptedChannels{errs: repeatErr(services.ErrQuotaExceeded, 2)}
	svc, _ := newProjectService(creator, "PL-default")

	res, err := svc.CreateProject(context.Background(), services.CreateProjectInput{
		Name:  "Show",
		Roles: []services.RoleInput{{Name: "Lead"}, {Name: "Extra"}},
	})
	require.NoError(t, err)
	for _, r := range res.Roles {
		assert.Equal(t, "PL-default", r.ChannelID)
		assert.True(t, r.UsedDefault)
	}
}

func TestCreateProject_ProvisioningFailureStoresNothing(t *testing.T) {
	creator := &scriptedChannels{errs: repeatErr(errors.New("invalid_grant"), 5)}
	svc, repo := newProjectService(creator, "PL-default")

	_, err := svc.CreateProject(context.Background(), services.CreateProjectInput{
		Name:  "Show",
		Roles: []services.RoleInput{{Name: "Lead"}},
	})
	assert.ErrorIs(t, err, services.ErrChannelProvision)

	got, _ := repo.FindByID(context.Background(), 1)
	assert.Nil(t, got)
}

func TestCreateProject_Validation(t *testing.T) {
	svc, _ := newProjectService(&scriptedChannels{id: "x"}, "")

	_, err := svc.CreateProject(context.Background(), services.CreateProjectInput{Name: " "})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.CreateProject(context.Background(), services.CreateProjectInput{Name: "Show", Roles: []services.RoleInput{{Name: "Lead"}, {Name: "lead"}}})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.CreateProject(context.Background(), services.CreateProjectInput{Name: "Show", Roles: []services.RoleInput{{Name: ""}}})
	assert.ErrorIs(t, err, services.ErrInvalidInput)
}

func TestAddRole(t *testing.T) {
	creator := &scriptedChannels{id: "PL-new"}
	svc, _ := newProjectService(creator, "PL-default")
	ctx := context.Background()

	res, err := svc.CreateProject(ctx, services.CreateProjectInput{Name: "Show", Roles: []services.RoleInput{{Name: "Lead", ChannelID: "PL-1"}}})
	require.NoError(t, err)

	role, err := svc.AddRole(ctx, res.ID, "Villain")
	require.NoError(t, err)
	assert.Equal(t, "PL-new", role.ChannelID)

	_, err = svc.AddRole(ctx, res.ID, "villain")
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	_, err = svc.AddRole(ctx, 404, "Extra")
	assert.ErrorIs(t, err, services.ErrProjectNotFound)

	project, err := svc.GetProject(ctx, res.ID)
	require.NoError(t, err)
	assert.Len(t, project.Roles, 2)

	_, err = svc.GetProject(ctx, 404)
	assert.ErrorIs(t, err, services.ErrProjectNotFound)
}
