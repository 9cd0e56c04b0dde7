package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/internship/core/portal"
)

const contextStudentKey = "student"

// roleMiddleware lets through access tokens of the given roles; no roles means any signed-in user.
func roleMiddleware(roles ...portal.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Refresh {
				return errRefreshTokenUsed
			}
			p := claims.Principal()
			if !portal.AllowedRoles(roles, &p) {
				return errHttpForbidden
			}
			ctx.Set(contextPrincipalKey, p)
			return next(ctx)
		}
	}
}

// studentAccessMiddleware loads the student of the :id param into the context.
// Students only reach their own record, supervisors the students assigned to them.
func studentAccessMiddleware(store *portal.Store) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			p, err := getContextPrincipal(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			st, err := store.Student(ctx.Param("id"))
			if err != nil {
				return err
			}
			if err = canAccessStudent(p, st); err != nil {
				return err
			}
			ctx.Set(contextStudentKey, st)
			return next(ctx)
		}
	}
}

func canAccessStudent(p portal.Principal, st portal.Student) error {
	switch {
	case p.Role == portal.RoleStudent:
		return portal.EnsureMine(p, st.ID)
	case p.Role == portal.RoleFaculty && st.FacultyID != p.FacultyID:
		return portal.ErrNotYours
	case p.IsSite() && st.SiteID != p.SiteID:
		return portal.ErrNotYours
	}
	return nil
}

func getContextStudent(ctx echo.Context) (portal.Student, error) {
	if st, ok := ctx.Get(contextStudentKey).(portal.Student); ok {
		return st, nil
	}
	return portal.Student{}, errors.New("student not found in echo.Context")
}
