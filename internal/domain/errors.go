package domain

import "errors"

// ErrNoData marks an upstream answer that carried no usable price.
var ErrNoData = errors.New("no data")
