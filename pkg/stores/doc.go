// Package stores persists run history in a local SQLite database so a
// finished run stays inspectable after the process exits. The schema is
// managed through embedded golang-migrate migrations.
package stores
