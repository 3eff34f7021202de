package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sarashino/voice-diary-api/internal/constants"
	apierrors "github.com/sarashino/voice-diary-api/internal/errors"
	"github.com/sarashino/voice-diary-api/internal/models"
	"github.com/sarashino/voice-diary-api/internal/repository"
	"gorm.io/gorm"
)

// RequireProjectWrite authorizes mutation of a project: the project must
// exist, the caller must be authenticated, and the caller must be the
// recorded owner or an admin. The loaded project is stored in the context.
func RequireProjectWrite(projectRepo repository.ProjectRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project ID")
			c.Abort()
			return
		}

		project, err := projectRepo.FindByID(projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				apierrors.NotFound(c, "Project not found")
			} else {
				apierrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		principal, ok := GetPrincipal(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		isOwner := project.UserID != nil && *project.UserID == principal.ID
		if !isOwner && !principal.IsAdmin() {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// GetProject retrieves the project loaded by RequireProjectWrite.
func GetProject(c *gin.Context) (*models.Project, bool) {
	value, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := value.(*models.Project)
	return project, ok
}
