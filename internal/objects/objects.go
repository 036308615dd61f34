// Package objects contains shapes shared by the storage models, the biz
// layer and the API surface. To avoid circular dependencies, we put them
// here. New objects use camel-case json tags.
package objects
