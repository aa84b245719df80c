// Package auth provides authentication and authorisation for
// CrowdSight Core.
//
// It implements a 2-tier role model (user → manager) with:
//   - Argon2id password hashing (OWASP 2025 recommendation)
//   - Short-lived JWT access tokens signed with HS256
//   - Email-based accounts
//
// Users can browse places and live occupancy; managers additionally
// create, modify and delete places and upload analysis media. Access
// tokens are validated by signature only, with no database hit per
// request.
package auth
