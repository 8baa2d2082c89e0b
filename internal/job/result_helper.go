package job

import "github.com/ROCm/roc-optiq-sub003/internal/result"

func resultUnknown() result.Result { return result.UnknownError }
