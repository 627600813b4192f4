/*
Package registry provides the closed name → value tables used by kvobject.

A Mapper keeps one Registry of classes, which FindByKey uses to dispatch the
stored "class" field of a hash to its Class. The codec package keeps one of
history codecs.

	classes := registry.New[*Class]("class")
	classes.MustRegister("Order", order)
	c, ok := classes.Get("Order")

Registering the same name twice fails with an AlreadyExistsError. The registry
is thread-safe and is normally populated during initialization.
*/
package registry
