// Package views renders named HTML views for response hooks.
//
// Views are html/template files loaded from a directory. The view name is
// the file name without its extension, so "views/user.html" renders as
// "user". Templates may reference each other with {{template "layout" .}}.
//
// A Watcher reloads the set when files in the directory change. A reload
// that fails to parse keeps the previous set.
package views
