// Package azdo talks to Azure DevOps: it reads work items, opens pull
// requests linked back to them, and queues pipeline runs.
//
// The entry point builds one authenticated connection with NewConnection
// and wraps it in a Session, which hands out the narrow client interfaces
// that the readers and publishers depend on.
package azdo
