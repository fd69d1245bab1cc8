package repository

import (
	"context"
	"time"

	"github.com/yukikurage/sprint-planner-api/internal/models"
	"github.com/yukikurage/sprint-planner-api/internal/utils"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// ListBySprint returns every task of a sprint with its predecessor edges
	ListBySprint(sprintID uint64) ([]models.Task, error)

	// Update updates a task
	Update(task *models.Task) error

	// Delete soft deletes a task, detaches its children and drops its edges
	Delete(id uint64) error

	// AddDependency stores a predecessor edge
	AddDependency(dep *models.TaskDependency) error

	// RemoveDependency deletes a predecessor edge
	RemoveDependency(taskID, predecessorID uint64) error

	// FindDependency finds a specific predecessor edge
	FindDependency(taskID, predecessorID uint64) (*models.TaskDependency, error)

	// CountChildren counts the live children of a task
	CountChildren(taskID uint64) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	SprintID   uint64
	Status     *models.TaskStatus
	AssigneeID *uint64
	ParentID   *uint64
	Page       utils.Page
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	// CreateWithOwner creates a product and its owner membership in one transaction
	CreateWithOwner(product *models.Product, owner *models.ProductMember) error

	// FindByID finds a product by ID
	FindByID(id uint64) (*models.Product, error)

	// FindByInviteCode finds a product by invite code
	FindByInviteCode(code string) (*models.Product, error)

	// Update updates a product
	Update(product *models.Product) error

	// Delete deletes a product and everything below it
	Delete(id uint64) error

	// AddMember adds a member to a product
	AddMember(member *models.ProductMember) error

	// RemoveMember removes a member from a product
	RemoveMember(productID, userID uint64) error

	// FindMember finds a specific product member
	FindMember(productID, userID uint64) (*models.ProductMember, error)

	// ListMembersByUserID lists all products a user is a member of
	ListMembersByUserID(userID uint64) ([]models.ProductMember, error)

	// ListMembers lists all members of a product
	ListMembers(productID uint64) ([]models.ProductMember, error)

	CreateVersion(version *models.Version) error
	FindVersion(productID, versionID uint64) (*models.Version, error)
	ListVersions(productID uint64) ([]models.Version, error)
	UpdateVersion(version *models.Version) error
	DeleteVersion(productID, versionID uint64) error

	CreateFeature(feature *models.Feature) error
	FindFeature(productID, featureID uint64) (*models.Feature, error)
	ListFeatures(productID, versionID uint64) ([]models.Feature, error)
	DeleteFeature(productID, featureID uint64) error
}

// SprintRepository defines the interface for sprint data access
type SprintRepository interface {
	Create(sprint *models.Sprint) error
	FindByID(id uint64, preload ...string) (*models.Sprint, error)
	List(filter SprintFilter) ([]models.Sprint, error)
	Update(sprint *models.Sprint) error

	// Delete deletes a sprint with its tasks, edges and worklogs
	Delete(id uint64) error

	// SaveSchedule writes the computed dates and totals of a sprint and its
	// tasks in one transaction. User-editable columns are left untouched.
	SaveSchedule(ctx context.Context, sprint *models.Sprint, tasks []models.Task) error

	// ListIDsForUser returns the sprints whose schedule depends on the
	// calendar of userID: owned sprints and sprints with tasks assigned to them.
	ListIDsForUser(userID uint64) ([]uint64, error)
}

// SprintFilter holds filtering options for listing sprints
type SprintFilter struct {
	ProductID uint64
	FeatureID *uint64
	Status    *models.SprintStatus
}

// WorklogRepository defines the interface for worklog data access
type WorklogRepository interface {
	// CreateApplied stores a worklog together with the task effort it changed.
	// apply receives the locked, current row of the worklog's task.
	CreateApplied(worklog *models.Worklog, apply func(task *models.Task) error) error

	// DeleteReverted removes a worklog together with the task effort it restored
	DeleteReverted(worklog *models.Worklog, revert func(task *models.Task) error) error

	FindByID(id uint64) (*models.Worklog, error)
	ListByTask(taskID uint64) ([]models.Worklog, error)
	ListBySprint(sprintID uint64, from, to *time.Time) ([]models.Worklog, error)
}

// CalendarRepository defines the interface for working-time calendar data access
type CalendarRepository interface {
	FindWorkWeek(userID uint64) (*models.UserWorkWeek, error)
	SaveWorkWeek(week *models.UserWorkWeek) error

	AddAvailability(a *models.UserAvailability) error
	ListAvailability(userID uint64) ([]models.UserAvailability, error)
	DeleteAvailability(userID, id uint64) error

	AddUserLocation(l *models.UserLocation) error
	ListUserLocations(userID uint64) ([]models.UserLocation, error)
	DeleteUserLocation(userID, id uint64) error

	AddOffDay(o *models.OffDay) error
	ListOffDays(userID uint64) ([]models.OffDay, error)
	DeleteOffDay(userID, id uint64) error

	// ImportLocations upserts locations and replaces their holidays
	ImportLocations(locations []models.Location) error
	ListLocations() ([]models.Location, error)
	FindLocation(code string) (*models.Location, error)
	AddHoliday(h *models.Holiday) error
	DeleteHoliday(code string, id uint64) error

	// ListUserIDsByLocation returns the users whose calendars use one of codes
	ListUserIDsByLocation(codes []string) ([]uint64, error)
}

// SnapshotRepository loads the consistent input of a scheduling pass
type SnapshotRepository interface {
	LoadSprintSnapshot(ctx context.Context, sprintID uint64) (*Snapshot, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithWorkWeek creates a user and their default work week within a
	// single transaction.
	CreateWithWorkWeek(user *models.User, week *models.UserWorkWeek) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// Usernames resolves display names for a set of user IDs
	Usernames(ids []uint64) (map[uint64]string, error)
}
