package xr

// CompositionLayer is one layer submitted to the compositor at end-frame.
// Projection layers are the only kind the shell produces; the interface leaves
// room for quad/cylinder layers without changing the end-frame signature.
type CompositionLayer interface {
	isLayer()
}

// SwapchainSubImage references a sub-region of one swapchain image: the image
// rectangle plus the array layer holding a single eye's content.
type SwapchainSubImage struct {
	Swapchain       Swapchain
	ImageRect       Rect2Di
	ImageArrayIndex uint32
}

// CompositionLayerProjectionView is one eye's contribution to a projection layer:
// the pose and field of view the content was rendered with, and where to find it.
type CompositionLayerProjectionView struct {
	Pose     Posef
	Fov      Fov
	SubImage SwapchainSubImage
}

// CompositionLayerProjection presents planar projected content rendered from the
// eye poses of a stereo view configuration.
type CompositionLayerProjection struct {
	// Space is the reference space the view poses are expressed in.
	Space Space
	Views []CompositionLayerProjectionView
}

func (*CompositionLayerProjection) isLayer() {}
