// Package workspace is the persistence side of a form session: the service a
// site workspace configuration is read from and saved to, a YAML file store
// implementing it, and the save handler that connects a session to a service.
package workspace
