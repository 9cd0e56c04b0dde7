package portalclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/internship/core/portal"
)

var (
	ErrMissingFields    = errors.New("Missing required fields")
	ErrInsecureEndpoint = errors.New("Insecure endpoint")
)

func trim(s string) string  { return strings.TrimSpace(s) }
func lower(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Admin

// CreateAccount fails before any call when a field is missing or,
// in production, when the API is served over plain http.
func (c *Client) CreateAccount(ctx context.Context, req portal.CreateAccountRequest) (Response, error) {
	req.Email = trim(req.Email)
	req.Name = trim(req.Name)
	if req.Role == "" {
		req.Role = portal.AccountAdmin
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		return Response{}, ErrMissingFields
	}
	if c.production && strings.HasPrefix(c.baseURL, "http:") {
		return Response{}, ErrInsecureEndpoint
	}
	return c.send(ctx, http.MethodPost, "/api/admin/create-account", req), nil
}

func (c *Client) AddCompany(ctx context.Context, req portal.CompanyRequest) Response {
	return c.send(ctx, http.MethodPost, "/api/admin/add-company", req)
}

func (c *Client) UpdateCompany(ctx context.Context, id string, changes portal.CompanyChanges) Response {
	return c.send(ctx, http.MethodPut, "/api/admin/update-company/"+url.PathEscape(id), changes)
}

func (c *Client) Companies(ctx context.Context) Response {
	return c.get(ctx, "/api/admin/companies")
}

// ReviewCompany approves or rejects a pending company request.
func (c *Client) ReviewCompany(ctx context.Context, requestID string, review portal.ReviewRequest) Response {
	return c.send(ctx, http.MethodPost, "/api/admin/review-company/"+url.PathEscape(requestID), review)
}

func (c *Client) AssignSupervisor(ctx context.Context, req portal.AssignSupervisorRequest) Response {
	return c.send(ctx, http.MethodPost, "/api/admin/assign-supervisor", req)
}

func (c *Client) CompanySupervisors(ctx context.Context, companyID string) Response {
	return c.get(ctx, "/api/admin/company-supervisors/"+url.PathEscape(companyID))
}

// Student

func (c *Client) CreateInternship(ctx context.Context, req portal.CreateInternshipRequest) Response {
	return c.send(ctx, http.MethodPost, "/api/student/create-internship", req)
}

func (c *Client) GetAppExA(ctx context.Context) Response {
	return c.get(ctx, "/api/student/appex-a")
}

func (c *Client) SubmitAppExA(ctx context.Context, form portal.AppExA) Response {
	return c.send(ctx, http.MethodPost, "/api/student/appex-a", form)
}

func (c *Client) UpdateAppExA(ctx context.Context, form portal.AppExA) Response {
	return c.send(ctx, http.MethodPut, "/api/student/appex-a", form)
}

func (c *Client) RequestToAddCompany(ctx context.Context, req portal.NewCompanyRequest) Response {
	return c.send(ctx, http.MethodPost, "/api/student/request-to-add-company", req)
}

func (c *Client) MyCompanyRequests(ctx context.Context) Response {
	return c.get(ctx, "/api/student/request-to-add-company")
}

// Faculty

func (c *Client) FacultyProfile(ctx context.Context) Response {
	return c.get(ctx, "/api/faculty/profile")
}

func (c *Client) UpdateFacultyProfile(ctx context.Context, changes portal.FacultyChanges) Response {
	return c.send(ctx, http.MethodPost, "/api/faculty/profile", changes)
}

// Dropdown

// DropdownCompanies lists companies as {id, name} pairs, filtered by search when not empty.
func (c *Client) DropdownCompanies(ctx context.Context, search string) Response {
	path := "/api/dropdown/companies"
	if search = trim(search); search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	return c.get(ctx, path)
}
