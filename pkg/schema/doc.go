// Package schema describes the ordered set of data fields a record source
// provides. Field order is significant: the mapping matcher scans fields in
// declaration order and the first containment match wins.
package schema
