// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

// RoleCustomer is the role every self-registered account receives.
const RoleCustomer UserRole = "customer"
