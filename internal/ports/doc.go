// Package ports declares the interfaces between the labelpress core and its
// transport adapters. The dispatch controller depends only on these
// contracts; each transport (spool, queue, ble) supplies one implementation.
package ports
