// Package app composes the domain services into a running application.
//
// # Package Structure
//
//	internal/app/
//	├── application.go      # Application struct and service wiring
//	├── auth/               # JWT issuing and verification
//	├── domain/             # Domain models (pure data structures)
//	│   ├── crew/           # Memberships, invitations, roles
//	│   ├── request/        # Supply requests and request types
//	│   ├── user/           # Accounts
//	│   ├── vessel/         # Vessels
//	│   └── waybill/        # Shipment tracking results
//	├── httpapi/            # HTTP handlers, response envelope, audit tail
//	├── metrics/            # Prometheus collectors
//	├── runtime/            # Process lifecycle: config, stores, server
//	├── services/           # Business logic (accounts, crews, requests, ...)
//	└── storage/            # Store interfaces plus postgres and memory backends
//
// # Responsibilities
//
// The app package wires stores into services and services into the HTTP
// layer. Business rules live in internal/app/services; persistence concerns
// live behind the interfaces in internal/app/storage. Handlers never touch a
// store directly.
//
// # Adding a New Domain
//
//  1. Create domain models in internal/app/domain/<name>/
//  2. Add a store interface to internal/app/storage/interfaces.go
//  3. Implement it in storage/postgres and storage/memory
//  4. Create the service in internal/app/services/<name>/service.go
//  5. Wire it in application.go and expose routes in httpapi
package app
