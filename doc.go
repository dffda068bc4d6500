// Package coordinate applies a single logical write (create or delete)
// identically across every replica node of a small, unreliable cluster.
//
// The replicas expose plain stateless HTTP endpoints, so no database-style
// commit/rollback exists; consistency is engineered at the orchestration
// layer with a compensating-transaction (saga) strategy: dispatch the action
// to all nodes concurrently, and if any node fails permanently, reverse the
// effects on the nodes that already succeeded.
//
// Overview
//
//  1. Define the cluster:
//     - Build a Membership (NewStaticMembership) mapping group IDs to node
//       IDs and base addresses.
//     - Register a NodeClient per node in a ClientRegistry;
//       RegisterGroup wires up HTTPNodeClients from a Group.
//  2. Create a Coordinator with New, composing options for the retry
//     policy, the delete compensation policy, logging, and metrics.
//  3. Call Coordinate with a group ID and an ActionSpec.  The returned
//     TransactionState is the eventual-consistency verdict:
//     - StateSucceeded: all nodes applied the action
//     - StateRolledBack: the action was rejected and all partial work was
//       compensated back out
//     - StateFailed: consistency could not be established; the error tells
//       you whether retries ran out (*ExhaustionError) or compensation
//       itself failed (*CompensationError) and must be escalated
//  4. Or run the HTTP front door: NewServer exposes POST /dtc/ over a
//     Coordinator; cmd/dtcd is the configured daemon.
//
// The coordinator guarantees eventual consistency for one operation through
// bounded retries and best-effort compensation, not linearizability or
// distributed consensus.  It keeps no durable transaction history; every
// attempt record dies with its Coordinate call.
package coordinate
