package authz

// Named permissions used across the application. These are seeded once and
// referenced by route tables, UI guards, and the redirect policy.
var (
	PermManageAll = ManageAll

	PermViewDashboard = Permission{ActionView, SubjectDashboard}

	PermCreateService = Permission{ActionCreate, SubjectService}
	PermReadService   = Permission{ActionRead, SubjectService}
	PermUpdateService = Permission{ActionUpdate, SubjectService}
	PermDeleteService = Permission{ActionDelete, SubjectService}

	PermCreateNews  = Permission{ActionCreate, SubjectNews}
	PermReadNews    = Permission{ActionRead, SubjectNews}
	PermUpdateNews  = Permission{ActionUpdate, SubjectNews}
	PermDeleteNews  = Permission{ActionDelete, SubjectNews}
	PermPublishNews = Permission{ActionPublish, SubjectNews}

	PermCreateJob = Permission{ActionCreate, SubjectJob}
	PermReadJob   = Permission{ActionRead, SubjectJob}
	PermUpdateJob = Permission{ActionUpdate, SubjectJob}
	PermDeleteJob = Permission{ActionDelete, SubjectJob}

	PermCreateUser = Permission{ActionCreate, SubjectUser}
	PermReadUser   = Permission{ActionRead, SubjectUser}
	PermUpdateUser = Permission{ActionUpdate, SubjectUser}
	PermDeleteUser = Permission{ActionDelete, SubjectUser}
	PermManageUser = Permission{ActionManage, SubjectUser}

	PermReadRole   = Permission{ActionRead, SubjectRole}
	PermManageRole = Permission{ActionManage, SubjectRole}

	PermViewContainer   = Permission{ActionView, SubjectContainer}
	PermManageContainer = Permission{ActionManage, SubjectContainer}

	PermManageSettings     = Permission{ActionManage, SubjectSettings}
	PermManageSystemConfig = Permission{ActionManage, SubjectSystemConfig}
)

// CatalogEntry pairs a permission with its seed description.
type CatalogEntry struct {
	Permission  Permission
	Description string
}

// Catalog lists every permission the system seeds. Uniqueness on the
// (action, subject) pair is enforced at seed time.
func Catalog() []CatalogEntry {
	return []CatalogEntry{
		{PermManageAll, "Full access to everything"},
		{PermViewDashboard, "View the admin dashboard"},
		{PermCreateService, "Create services"},
		{PermReadService, "Read services"},
		{PermUpdateService, "Update services"},
		{PermDeleteService, "Delete services"},
		{PermCreateNews, "Create news articles"},
		{PermReadNews, "Read news articles"},
		{PermUpdateNews, "Update news articles"},
		{PermDeleteNews, "Delete news articles"},
		{PermPublishNews, "Publish news articles"},
		{PermCreateJob, "Create job postings"},
		{PermReadJob, "Read job postings"},
		{PermUpdateJob, "Update job postings"},
		{PermDeleteJob, "Delete job postings"},
		{PermCreateUser, "Create users"},
		{PermReadUser, "Read users"},
		{PermUpdateUser, "Update users"},
		{PermDeleteUser, "Delete users"},
		{PermManageUser, "Manage users, including password resets"},
		{PermReadRole, "Read roles"},
		{PermManageRole, "Manage roles and their grants"},
		{PermViewContainer, "View content containers"},
		{PermManageContainer, "Manage content containers"},
		{PermManageSettings, "Manage site settings"},
		{PermManageSystemConfig, "Manage system configuration"},
	}
}
